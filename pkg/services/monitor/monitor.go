package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/events"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/services/notify"
	"github.com/de-tools/flow-atlas/pkg/services/report"
	"github.com/de-tools/flow-atlas/pkg/services/traffic"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite/messages"
)

const (
	KindDaily  = "daily"
	KindWeekly = "weekly"
)

type RunOptions struct {
	IncludeWeekly bool
	// WeeklyPeriod labels the weekly message; the week of the run is used when nil
	WeeklyPeriod *domain.TimePeriod
}

type Dependencies struct {
	Traffic   traffic.Service
	Formatter *report.Formatter
	Notifier  notify.Notifier
	Messages  messages.Store
	Publisher events.Publisher
	Catalog   *domain.BranchCatalog
	Location  *time.Location
	Now       func() time.Time
}

// Monitor runs one fetch, persist, report cycle at a time
type Monitor struct {
	traffic   traffic.Service
	formatter *report.Formatter
	notifier  notify.Notifier
	messages  messages.Store
	publisher events.Publisher
	catalog   *domain.BranchCatalog
	location  *time.Location
	now       func() time.Time
}

func New(deps Dependencies) (*Monitor, error) {
	if deps.Traffic == nil || deps.Formatter == nil || deps.Notifier == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("traffic service, formatter, notifier and catalog are required")
	}
	if deps.Publisher == nil {
		deps.Publisher = &events.NoopPublisher{}
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Monitor{
		traffic:   deps.Traffic,
		formatter: deps.Formatter,
		notifier:  deps.Notifier,
		messages:  deps.Messages,
		publisher: deps.Publisher,
		catalog:   deps.Catalog,
		location:  deps.Location,
		now:       deps.Now,
	}, nil
}

// Run executes one cycle. Only a failed fetch or parse aborts it; persistence,
// event and delivery failures are logged and the cycle carries on.
func (m *Monitor) Run(ctx context.Context, opts RunOptions) (domain.FlowSnapshot, error) {
	now := m.now().In(m.location)
	date := now.Format(domain.DateLayout)
	logger := zerolog.Ctx(ctx).With().
		Str("date", date).
		Bool("weekly", opts.IncludeWeekly).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Msg("starting traffic run")

	snapshot, err := m.traffic.FetchAndParse(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("traffic run aborted")
		return nil, err
	}

	if err := m.traffic.Save(ctx, date, snapshot); err != nil {
		logger.Error().Err(err).Msg("failed to persist traffic snapshot")
	} else {
		m.publishStored(ctx, date, snapshot)
	}

	reports, err := m.buildReports(snapshot, now, opts)
	if err != nil {
		logger.Error().Err(err).Msg("failed to render report")
		return snapshot, nil
	}

	for _, r := range reports {
		m.deliver(ctx, date, r)
	}

	logger.Info().Int("branches", len(snapshot)).Msg("traffic run finished")
	return snapshot, nil
}

// Today is the date a run started now would be stored under
func (m *Monitor) Today() string {
	return m.now().In(m.location).Format(domain.DateLayout)
}

type pendingReport struct {
	kind string
	domain.Report
}

func (m *Monitor) buildReports(snapshot domain.FlowSnapshot, now time.Time, opts RunOptions) ([]pendingReport, error) {
	title := m.formatter.Title(now)

	daily, err := m.formatter.Format(snapshot, report.Options{IncludeDaily: true, GeneratedAt: now})
	if err != nil {
		return nil, err
	}
	reports := []pendingReport{{kind: KindDaily, Report: domain.Report{Title: title, Body: daily}}}

	if opts.IncludeWeekly {
		period := domain.WeekOf(now)
		if opts.WeeklyPeriod != nil {
			period = *opts.WeeklyPeriod
		}
		weekly, err := m.formatter.Format(snapshot, report.Options{
			IncludeWeekly: true,
			WeeklyRange:   period.Label(),
			GeneratedAt:   now,
		})
		if err != nil {
			return nil, err
		}
		reports = append(reports, pendingReport{kind: KindWeekly, Report: domain.Report{Title: title, Body: weekly}})
	}
	return reports, nil
}

func (m *Monitor) deliver(ctx context.Context, date string, r pendingReport) {
	logger := zerolog.Ctx(ctx).With().Str("kind", r.kind).Logger()

	if err := m.notifier.SendReport(ctx, r.Title, r.Body); err != nil {
		logger.Error().Err(err).Msg("failed to deliver report")
		return
	}
	logger.Info().Msg("report delivered")

	if m.messages == nil {
		return
	}
	id := r.kind + ":" + date
	created, err := m.messages.Insert(ctx, id, r.Body, m.now().In(m.location).Format(time.RFC3339))
	if err != nil {
		logger.Warn().Err(err).Str("message_id", id).Msg("failed to record delivered report")
		return
	}
	if !created {
		logger.Debug().Str("message_id", id).Msg("report already recorded")
	}
}

func (m *Monitor) publishStored(ctx context.Context, date string, snapshot domain.FlowSnapshot) {
	totals := snapshot.Totals()
	event := events.SnapshotStored{
		Date:     date,
		TotalIn:  totals.DailyIn,
		TotalOut: totals.DailyOut,
		NetFlow:  totals.DailyNet,
	}
	for _, id := range m.catalog.IDs() {
		s, ok := snapshot[id]
		if !ok {
			continue
		}
		event.Locations = append(event.Locations, events.LocationCount{
			Location: string(id),
			Name:     s.Name,
			DailyIn:  s.DailyIn,
			DailyOut: s.DailyOut,
			NetFlow:  s.NetFlow,
		})
	}

	if err := m.publisher.Publish(ctx, events.TopicSnapshotStored, event); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to publish snapshot event")
	}
}
