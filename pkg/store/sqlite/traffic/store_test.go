package traffic

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/flow-atlas/pkg/models/store"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite"
)

type fixture struct {
	db    *sqlx.DB
	store Store
}

func setupTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlite.NewDB(sqlite.Settings{DbPath: filepath.Join(t.TempDir(), "bot.db")})
	require.NoError(t, err)
	return db
}

func setupFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	s, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: s,
	}
}

func location(date, id, name string, in, out int64) store.DailyLocationRecord {
	return store.DailyLocationRecord{
		Date:        date,
		OrgLocation: id,
		OrgName:     name,
		DailyIn:     in,
		DailyOut:    out,
		NetFlow:     in - out,
	}
}

type storedState struct {
	Locations []store.DailyLocationRecord
	Totals    []store.DailyTotalRecord
}

// snapshotState reads back every row, ignoring timestamps
func (f *fixture) snapshotState(t *testing.T) storedState {
	var state storedState
	require.NoError(t, f.db.Select(&state.Locations,
		"SELECT date, org_location, org_name, daily_in, daily_out, net_flow FROM traffic_daily_locations ORDER BY date, org_location"))
	require.NoError(t, f.db.Select(&state.Totals,
		"SELECT date, total_in, total_out, net_flow FROM traffic_daily_totals ORDER BY date"))
	return state
}

func TestNewStore(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := setupFixture(t)
		assert.NotNil(t, f.store)
	})

	t.Run("nil db", func(t *testing.T) {
		s, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestStore_UpsertDailyFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("writes locations and totals", func(t *testing.T) {
		f := setupFixture(t)

		err := f.store.UpsertDailyFlow(ctx, "2026-02-11", []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
			location("2026-02-11", "CN-ZJLIB_BSGL", "曙光馆", 120, 100),
		})
		require.NoError(t, err)

		total, err := f.store.GetDailyTotal(ctx, "2026-02-11")
		require.NoError(t, err)
		require.NotNil(t, total)
		assert.Equal(t, int64(620), total.TotalIn)
		assert.Equal(t, int64(580), total.TotalOut)
		assert.Equal(t, int64(40), total.NetFlow)
		assert.NotEmpty(t, total.CreatedAt)

		locations, err := f.store.ListLocations(ctx, "2026-02-11")
		require.NoError(t, err)
		require.Len(t, locations, 2)
		assert.Equal(t, "CN-ZJLIB_ZJ", locations[0].OrgLocation)
		assert.Equal(t, int64(20), locations[0].NetFlow)

		var sumIn int64
		for _, l := range locations {
			sumIn += l.DailyIn
		}
		assert.Equal(t, total.TotalIn, sumIn)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := setupFixture(t)
		rows := []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
			location("2026-02-11", "CN-ZJLIB_BSL", "大学路馆", 90, 95),
		}

		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", rows))
		once := f.snapshotState(t)

		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", rows))
		twice := f.snapshotState(t)

		assert.Equal(t, once, twice)
		assert.Len(t, twice.Locations, 2)
		assert.Len(t, twice.Totals, 1)
	})

	t.Run("re-run overwrites previous snapshot", func(t *testing.T) {
		f := setupFixture(t)

		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
			location("2026-02-11", "CN-ZJLIB_BSGL", "曙光馆", 120, 100),
		}))
		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 610, 600),
		}))

		state := f.snapshotState(t)
		assert.Equal(t, []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 610, 600),
		}, state.Locations)
		assert.Equal(t, []store.DailyTotalRecord{
			{Date: "2026-02-11", TotalIn: 610, TotalOut: 600, NetFlow: 10},
		}, state.Totals)
	})

	t.Run("other dates are untouched", func(t *testing.T) {
		f := setupFixture(t)

		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-10", []store.DailyLocationRecord{
			location("2026-02-10", "CN-ZJLIB_ZJ", "之江馆", 300, 290),
		}))
		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", []store.DailyLocationRecord{
			location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
		}))

		previous, err := f.store.ListLocations(ctx, "2026-02-10")
		require.NoError(t, err)
		require.Len(t, previous, 1)
		assert.Equal(t, int64(300), previous[0].DailyIn)
	})

	t.Run("net flow is derived from in and out", func(t *testing.T) {
		f := setupFixture(t)
		row := location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480)
		row.NetFlow = 999

		require.NoError(t, f.store.UpsertDailyFlow(ctx, "2026-02-11", []store.DailyLocationRecord{row}))

		locations, err := f.store.ListLocations(ctx, "2026-02-11")
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, int64(20), locations[0].NetFlow)
	})
}

func TestStore_UpsertDailyFlow_FailureLeavesNoPartialState(t *testing.T) {
	// Given
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s, err := NewStore(sqlx.NewDb(mockDB, "sqlmock"))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM traffic_daily_locations").
		WithArgs("2026-02-11").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectPrepare("INSERT INTO traffic_daily_locations").
		ExpectExec().
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	// When
	err = s.UpsertDailyFlow(context.Background(), "2026-02-11", []store.DailyLocationRecord{
		location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
	})

	// Then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertDailyFlow_TotalFailureRollsBackLocations(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	s, err := NewStore(sqlx.NewDb(mockDB, "sqlmock"))
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM traffic_daily_locations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare("INSERT INTO traffic_daily_locations").
		ExpectExec().
		WithArgs("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", int64(500), int64(480), int64(20)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO traffic_daily_totals").
		WithArgs("2026-02-11", int64(500), int64(480), int64(20)).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err = s.UpsertDailyFlow(context.Background(), "2026-02-11", []store.DailyLocationRecord{
		location("2026-02-11", "CN-ZJLIB_ZJ", "之江馆", 500, 480),
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SumTotalsBetween(t *testing.T) {
	ctx := context.Background()

	t.Run("single day after totals-only write", func(t *testing.T) {
		f := setupFixture(t)
		require.NoError(t, f.store.UpsertDailyTotal(ctx, "2026-02-11", 200))

		total, err := f.store.SumTotalsBetween(ctx, "2026-02-11", "2026-02-11")
		require.NoError(t, err)
		assert.Equal(t, int64(200), total)
	})

	t.Run("empty range returns zero", func(t *testing.T) {
		f := setupFixture(t)
		require.NoError(t, f.store.UpsertDailyTotal(ctx, "2026-02-11", 200))

		total, err := f.store.SumTotalsBetween(ctx, "2025-01-01", "2025-12-31")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)

		total, err = f.store.SumTotalsBetween(ctx, "2026-03-01", "2026-02-01")
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("inclusive bounds", func(t *testing.T) {
		f := setupFixture(t)
		for date, in := range map[string]int64{
			"2026-02-08": 1000,
			"2026-02-09": 100,
			"2026-02-12": 200,
			"2026-02-15": 300,
			"2026-02-16": 5000,
		} {
			require.NoError(t, f.store.UpsertDailyTotal(ctx, date, in))
		}

		total, err := f.store.SumTotalsBetween(ctx, "2026-02-09", "2026-02-15")
		require.NoError(t, err)
		assert.Equal(t, int64(600), total)

		totals, err := f.store.ListTotals(ctx, "2026-02-09", "2026-02-15")
		require.NoError(t, err)
		require.Len(t, totals, 3)
		assert.Equal(t, "2026-02-09", totals[0].Date)
		assert.Equal(t, "2026-02-15", totals[2].Date)
	})
}

func TestStore_UpsertDailyTotal(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.UpsertDailyTotal(ctx, "2026-02-11", 200))
	require.NoError(t, f.store.UpsertDailyTotal(ctx, "2026-02-11", 250))

	total, err := f.store.GetDailyTotal(ctx, "2026-02-11")
	require.NoError(t, err)
	require.NotNil(t, total)
	assert.Equal(t, int64(250), total.TotalIn)
	assert.Equal(t, int64(0), total.TotalOut)
	assert.Equal(t, int64(250), total.NetFlow)
}

func TestStore_GetDailyTotal_Missing(t *testing.T) {
	f := setupFixture(t)

	total, err := f.store.GetDailyTotal(context.Background(), "2026-02-11")
	require.NoError(t, err)
	assert.Nil(t, total)
}
