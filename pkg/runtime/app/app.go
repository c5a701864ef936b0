package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/config"
	"github.com/de-tools/flow-atlas/pkg/events"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/services/monitor"
	"github.com/de-tools/flow-atlas/pkg/services/notify"
	"github.com/de-tools/flow-atlas/pkg/services/report"
	"github.com/de-tools/flow-atlas/pkg/services/traffic"
	"github.com/de-tools/flow-atlas/pkg/services/workflow"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite/messages"
	trafficstore "github.com/de-tools/flow-atlas/pkg/store/sqlite/traffic"
)

// App owns the database handle and the stores built on it.
// The pipeline pieces are built on demand so read-only commands stay offline.
type App struct {
	Config   *config.Config
	Catalog  *domain.BranchCatalog
	Location *time.Location
	Traffic  trafficstore.Store
	Messages messages.Store

	output    io.Writer
	db        *sqlx.DB
	publisher events.Publisher
}

func New(cfg *config.Config, output io.Writer) (*App, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("invalid branches: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := sqlite.NewDB(sqlite.Settings{DbPath: cfg.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	trafficStore, err := trafficstore.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create traffic store: %w", err)
	}
	messageStore, err := messages.NewStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create message store: %w", err)
	}

	return &App{
		Config:   cfg,
		Catalog:  catalog,
		Location: loc,
		Traffic:  trafficStore,
		Messages: messageStore,
		output:   output,
		db:       db,
	}, nil
}

// Monitor wires the full fetch, persist and report pipeline
func (a *App) Monitor(ctx context.Context) (*monitor.Monitor, error) {
	ids := a.Catalog.IDs()
	locations := make([]string, 0, len(ids))
	for _, id := range ids {
		locations = append(locations, string(id))
	}

	client, err := traffic.NewClient(traffic.ClientConfig{
		PrimaryURL: a.Config.Upstream.PrimaryURL,
		BackupURL:  a.Config.Upstream.BackupURL,
		Locations:  locations,
		UserAgent:  a.Config.Upstream.UserAgent,
		Timeout:    a.Config.Upstream.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create traffic client: %w", err)
	}

	svc, err := traffic.NewService(client, a.Catalog, a.Traffic)
	if err != nil {
		return nil, err
	}

	formatter, err := report.NewFormatter(a.Catalog, report.Branding{
		Heading:     a.Config.Report.Heading,
		TitlePrefix: a.Config.Report.TitlePrefix,
	})
	if err != nil {
		return nil, err
	}

	notifier, err := a.notifier(ctx)
	if err != nil {
		return nil, err
	}

	return monitor.New(monitor.Dependencies{
		Traffic:   svc,
		Formatter: formatter,
		Notifier:  notifier,
		Messages:  a.Messages,
		Publisher: a.eventPublisher(ctx),
		Catalog:   a.Catalog,
		Location:  a.Location,
	})
}

// Scheduler wires the cron controller around a fresh pipeline
func (a *App) Scheduler(ctx context.Context) (*workflow.Controller, error) {
	m, err := a.Monitor(ctx)
	if err != nil {
		return nil, err
	}
	runner := workflow.NewRunner(m, workflow.RunnerConfig{})
	return workflow.NewController(ctx, runner, workflow.Schedule{
		Daily:    a.Config.Schedule.Daily,
		Weekly:   a.Config.Schedule.Weekly,
		Location: a.Location,
	})
}

func (a *App) notifier(ctx context.Context) (notify.Notifier, error) {
	if a.Config.DingTalk.Webhook == "" {
		zerolog.Ctx(ctx).Warn().Msg("dingtalk webhook not configured, reports go to the console")
		return notify.NewConsoleNotifier(a.output), nil
	}
	return notify.NewDingTalkNotifier(notify.DingTalkConfig{
		Webhook: a.Config.DingTalk.Webhook,
		Secret:  a.Config.DingTalk.Secret,
	})
}

func (a *App) eventPublisher(ctx context.Context) events.Publisher {
	if a.publisher != nil {
		return a.publisher
	}
	a.publisher = &events.NoopPublisher{}
	if a.Config.Events.NATSURL == "" {
		return a.publisher
	}

	pub, err := events.NewNATSPublisher(a.Config.Events.NATSURL, a.Config.Events.Prefix)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("events disabled")
		return a.publisher
	}
	a.publisher = pub
	return a.publisher
}

func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}
