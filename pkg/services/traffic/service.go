package traffic

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/adapters"
	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/models/upstream"
	trafficstore "github.com/de-tools/flow-atlas/pkg/store/sqlite/traffic"
)

type Service interface {
	// FetchAndParse asks the primary endpoint, then the backup once, and parses whatever answered
	FetchAndParse(ctx context.Context) (domain.FlowSnapshot, error)
	// Save persists the snapshot as the counts of date
	Save(ctx context.Context, date string, snapshot domain.FlowSnapshot) error
}

type service struct {
	client  Client
	parser  *Parser
	catalog *domain.BranchCatalog
	store   trafficstore.Store
}

func NewService(client Client, catalog *domain.BranchCatalog, store trafficstore.Store) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("traffic client is nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("branch catalog is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("traffic store is nil")
	}
	return &service{
		client:  client,
		parser:  NewParser(catalog),
		catalog: catalog,
		store:   store,
	}, nil
}

func (s *service) FetchAndParse(ctx context.Context) (domain.FlowSnapshot, error) {
	envelope, err := s.fetch(ctx)
	if errors.Is(err, ErrMalformed) {
		return nil, fmt.Errorf("parse traffic response: %w", err)
	}
	if err != nil {
		return nil, err
	}

	snapshot, err := s.parser.Parse(ctx, envelope)
	if err != nil {
		return nil, fmt.Errorf("parse traffic response: %w", err)
	}
	return snapshot, nil
}

func (s *service) fetch(ctx context.Context) (*upstream.FlowEnvelope, error) {
	logger := zerolog.Ctx(ctx)

	envelope, primaryErr := s.client.Fetch(ctx, false)
	if primaryErr == nil || errors.Is(primaryErr, ErrMalformed) {
		return envelope, primaryErr
	}

	logger.Warn().Err(primaryErr).Msg("primary endpoint failed, trying backup")
	envelope, backupErr := s.client.Fetch(ctx, true)
	if backupErr == nil || errors.Is(backupErr, ErrMalformed) {
		return envelope, backupErr
	}

	logger.Error().
		AnErr("primary_error", primaryErr).
		AnErr("backup_error", backupErr).
		Msg("all traffic endpoints failed")
	return nil, fmt.Errorf("%w: primary: %v; backup: %v", ErrAllEndpointsFailed, primaryErr, backupErr)
}

func (s *service) Save(ctx context.Context, date string, snapshot domain.FlowSnapshot) error {
	records := adapters.MapSnapshotToLocationRecords(date, s.catalog, snapshot)
	if err := s.store.UpsertDailyFlow(ctx, date, records); err != nil {
		return fmt.Errorf("save traffic for %s: %w", date, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("date", date).
		Int("locations", len(records)).
		Msg("traffic snapshot stored")
	return nil
}
