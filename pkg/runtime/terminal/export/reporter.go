package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"

	"github.com/de-tools/flow-atlas/pkg/models/api"
)

type TableConfig struct {
	NameWidth  int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:  16,
		ValueWidth: 12,
	}
}

// FlowTable is one day of per-branch counts as printed by the CLI
type FlowTable struct {
	Date   string
	Daily  api.DailyFlow
	Weekly map[string]int64
}

// TotalsTable is a date range with its per-day rows
type TotalsTable struct {
	Range api.RangeTotal
	Days  []api.DailyTotal
}

type Reporter struct {
	writer io.Writer
	config TableConfig
	width  *runewidth.Condition
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
		width:  narrowAmbiguous(),
	}
}

// narrowAmbiguous measures ambiguous-width runes as one column whatever the locale says
func narrowAmbiguous() *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	return cond
}

func (c *Reporter) funcs(columns int) template.FuncMap {
	return template.FuncMap{
		"formatRow": func(name string, values ...interface{}) string {
			var sb strings.Builder
			// pad by display columns so CJK branch names line up
			fmt.Fprintf(&sb, "| %s |", c.width.FillRight(name, c.config.NameWidth))
			for _, v := range values {
				fmt.Fprintf(&sb, " %*v |", c.config.ValueWidth, v)
			}
			return sb.String()
		},
		"separator": func() string {
			var sb strings.Builder
			sb.WriteString("+" + strings.Repeat("-", c.config.NameWidth+2) + "+")
			for i := 0; i < columns; i++ {
				sb.WriteString(strings.Repeat("-", c.config.ValueWidth+2) + "+")
			}
			return sb.String()
		},
	}
}

func (c *Reporter) HandleFlow(table FlowTable) error {
	tmpl := `
Traffic for {{.Date}}

{{separator}}
{{formatRow "Branch" "Daily In" "Daily Out" "Net" "Weekly In"}}
{{separator}}
{{range .Daily.Locations}}{{formatRow .Name .DailyIn .DailyOut .NetFlow (index $.Weekly .Location)}}
{{end}}{{separator}}
{{formatRow "Total" .Daily.Total.TotalIn .Daily.Total.TotalOut .Daily.Total.NetFlow ""}}
{{separator}}
`
	return c.render(tmpl, 4, table)
}

func (c *Reporter) HandleTotals(table TotalsTable) error {
	tmpl := `
Entries from {{.Range.Start}} to {{.Range.End}}

{{separator}}
{{formatRow "Date" "Total In"}}
{{separator}}
{{range .Days}}{{formatRow .Date .TotalIn}}
{{end}}{{separator}}
{{formatRow "Sum" .Range.TotalIn}}
{{separator}}
`
	return c.render(tmpl, 1, table)
}

func (c *Reporter) render(tmpl string, columns int, data interface{}) error {
	t, err := template.New("report").Funcs(c.funcs(columns)).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}
