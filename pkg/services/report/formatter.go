package report

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/de-tools/flow-atlas/pkg/models/domain"
)

const (
	DefaultHeading     = "浙江图书馆人流统计"
	DefaultTitlePrefix = "浙图人流速报"

	// NoDataText replaces the body when the snapshot holds no branch
	NoDataText = "无法获取人流数据"

	timestampLayout = "2006-01-02 15:04:05"
)

const templates = `
{{- define "daily" -}}
#### {{.Heading}} ({{.GeneratedAt}})
---
{{range .Branches -}}
**📍 {{.Name}}**
- **进馆人次**: {{num .DailyIn}}

{{end -}}
---
**📊 总计:**
- **总进馆人次**: {{num .DailyTotal}}
{{- end}}

{{- define "weekly" -}}
#### 本周人流统计{{if .WeeklyRange}} ({{.WeeklyRange}}){{end}}
---
{{range .Branches -}}
**📍 {{.Name}}**
- **本周进馆人次**: {{num .WeeklyIn}}

{{end -}}
---
**📊 本周总计:**
- **本周总进馆人次**: {{num .WeeklyTotal}}
{{- end}}
`

// Branding holds the fixed strings of the chat messages
type Branding struct {
	Heading     string
	TitlePrefix string
}

type Options struct {
	IncludeDaily  bool
	IncludeWeekly bool
	// WeeklyRange is appended to the weekly header when not empty
	WeeklyRange string
	GeneratedAt time.Time
}

// Formatter renders snapshots as DingTalk markdown
type Formatter struct {
	catalog  *domain.BranchCatalog
	branding Branding
	tmpl     *template.Template
}

type view struct {
	Heading     string
	GeneratedAt string
	WeeklyRange string
	Branches    []domain.BranchFlowSummary
	DailyTotal  int64
	WeeklyTotal int64
}

func NewFormatter(catalog *domain.BranchCatalog, branding Branding) (*Formatter, error) {
	if catalog == nil {
		return nil, fmt.Errorf("branch catalog is nil")
	}
	if branding.Heading == "" {
		branding.Heading = DefaultHeading
	}
	if branding.TitlePrefix == "" {
		branding.TitlePrefix = DefaultTitlePrefix
	}

	printer := message.NewPrinter(language.English)
	tmpl, err := template.New("report").
		Funcs(template.FuncMap{
			"num": func(n int64) string { return printer.Sprintf("%d", n) },
		}).
		Parse(templates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Formatter{catalog: catalog, branding: branding, tmpl: tmpl}, nil
}

func (f *Formatter) Title(date time.Time) string {
	return f.branding.TitlePrefix + " " + date.Format(domain.DateLayout)
}

// Format renders the requested sections separated by a blank line.
// An empty snapshot renders NoDataText; no section requested renders nothing.
func (f *Formatter) Format(snapshot domain.FlowSnapshot, opts Options) (string, error) {
	if len(snapshot) == 0 {
		return NoDataText, nil
	}

	generatedAt := opts.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	totals := snapshot.Totals()
	data := view{
		Heading:     f.branding.Heading,
		GeneratedAt: generatedAt.Format(timestampLayout),
		WeeklyRange: opts.WeeklyRange,
		Branches:    f.ordered(snapshot),
		DailyTotal:  totals.DailyIn,
		WeeklyTotal: totals.WeeklyIn,
	}

	var sections []string
	if opts.IncludeDaily {
		s, err := f.render("daily", data)
		if err != nil {
			return "", err
		}
		sections = append(sections, s)
	}
	if opts.IncludeWeekly {
		s, err := f.render("weekly", data)
		if err != nil {
			return "", err
		}
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n\n"), nil
}

func (f *Formatter) render(name string, data view) (string, error) {
	var sb strings.Builder
	if err := f.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", name, err)
	}
	return sb.String(), nil
}

// ordered lists catalog branches first, in configured order, then any stray ids sorted
func (f *Formatter) ordered(snapshot domain.FlowSnapshot) []domain.BranchFlowSummary {
	seen := make(map[domain.BranchID]bool, len(snapshot))
	out := make([]domain.BranchFlowSummary, 0, len(snapshot))
	for _, id := range f.catalog.IDs() {
		if summary, ok := snapshot[id]; ok {
			out = append(out, summary)
			seen[id] = true
		}
	}

	var rest []domain.BranchID
	for id := range snapshot {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, id := range rest {
		out = append(out, snapshot[id])
	}
	return out
}
