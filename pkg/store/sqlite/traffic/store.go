package traffic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/de-tools/flow-atlas/pkg/models/store"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite"
)

// Store persists per-branch daily counts and per-date totals.
// Dates are ISO YYYY-MM-DD strings compared lexicographically; no parsing happens here.
type Store interface {
	// UpsertDailyFlow replaces everything stored for date with the given rows and their total
	UpsertDailyFlow(ctx context.Context, date string, locations []store.DailyLocationRecord) error
	// UpsertDailyTotal writes a totals-only row for date (no per-branch breakdown)
	UpsertDailyTotal(ctx context.Context, date string, totalIn int64) error
	SumTotalsBetween(ctx context.Context, startDate, endDate string) (int64, error)
	GetDailyTotal(ctx context.Context, date string) (*store.DailyTotalRecord, error)
	ListTotals(ctx context.Context, startDate, endDate string) ([]store.DailyTotalRecord, error)
	ListLocations(ctx context.Context, date string) ([]store.DailyLocationRecord, error)
}

type trafficStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &trafficStore{
		db: db,
	}, nil
}

const (
	deleteLocationsQuery = `DELETE FROM traffic_daily_locations WHERE date = ?`

	upsertLocationQuery = `
		INSERT INTO traffic_daily_locations (
			date, org_location, org_name, daily_in, daily_out, net_flow, created_at
		) VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(date, org_location) DO UPDATE SET
			org_name = excluded.org_name,
			daily_in = excluded.daily_in,
			daily_out = excluded.daily_out,
			net_flow = excluded.net_flow,
			created_at = excluded.created_at`

	upsertTotalQuery = `
		INSERT INTO traffic_daily_totals (
			date, total_in, total_out, net_flow, created_at
		) VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(date) DO UPDATE SET
			total_in = excluded.total_in,
			total_out = excluded.total_out,
			net_flow = excluded.net_flow,
			created_at = excluded.created_at`
)

func (s *trafficStore) UpsertDailyFlow(ctx context.Context, date string, locations []store.DailyLocationRecord) error {
	return sqlite.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteLocationsQuery, date); err != nil {
			return fmt.Errorf("clear locations for %s: %w", date, err)
		}

		stmt, err := tx.PrepareContext(ctx, upsertLocationQuery)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()

		var totalIn, totalOut int64
		for _, loc := range locations {
			net := loc.DailyIn - loc.DailyOut
			if _, err := stmt.ExecContext(ctx,
				date,
				loc.OrgLocation,
				loc.OrgName,
				loc.DailyIn,
				loc.DailyOut,
				net,
			); err != nil {
				return fmt.Errorf("upsert location %s: %w", loc.OrgLocation, err)
			}
			totalIn += loc.DailyIn
			totalOut += loc.DailyOut
		}

		if _, err := tx.ExecContext(ctx, upsertTotalQuery, date, totalIn, totalOut, totalIn-totalOut); err != nil {
			return fmt.Errorf("upsert total for %s: %w", date, err)
		}
		return nil
	})
}

func (s *trafficStore) UpsertDailyTotal(ctx context.Context, date string, totalIn int64) error {
	return sqlite.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertTotalQuery, date, totalIn, 0, totalIn); err != nil {
			return fmt.Errorf("upsert total for %s: %w", date, err)
		}
		return nil
	})
}

func (s *trafficStore) SumTotalsBetween(ctx context.Context, startDate, endDate string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(total_in), 0)
		FROM traffic_daily_totals
		WHERE date >= ? AND date <= ?
	`
	var total int64
	if err := sqlx.GetContext(ctx, s.queryer(ctx), &total, query, startDate, endDate); err != nil {
		return 0, fmt.Errorf("sum totals: %w", err)
	}
	return total, nil
}

func (s *trafficStore) GetDailyTotal(ctx context.Context, date string) (*store.DailyTotalRecord, error) {
	query := `
		SELECT date, total_in, total_out, net_flow, created_at
		FROM traffic_daily_totals
		WHERE date = ?
	`
	var record store.DailyTotalRecord
	err := sqlx.GetContext(ctx, s.queryer(ctx), &record, query, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get total: %w", err)
	}
	return &record, nil
}

func (s *trafficStore) ListTotals(ctx context.Context, startDate, endDate string) ([]store.DailyTotalRecord, error) {
	query := `
		SELECT date, total_in, total_out, net_flow, created_at
		FROM traffic_daily_totals
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`
	records := make([]store.DailyTotalRecord, 0)
	if err := sqlx.SelectContext(ctx, s.queryer(ctx), &records, query, startDate, endDate); err != nil {
		return nil, fmt.Errorf("list totals: %w", err)
	}
	return records, nil
}

func (s *trafficStore) ListLocations(ctx context.Context, date string) ([]store.DailyLocationRecord, error) {
	query := `
		SELECT date, org_location, org_name, daily_in, daily_out, net_flow, created_at
		FROM traffic_daily_locations
		WHERE date = ?
		ORDER BY id
	`
	records := make([]store.DailyLocationRecord, 0)
	if err := sqlx.SelectContext(ctx, s.queryer(ctx), &records, query, date); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return records, nil
}

func (s *trafficStore) queryer(ctx context.Context) sqlx.QueryerContext {
	if tx := sqlite.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}
