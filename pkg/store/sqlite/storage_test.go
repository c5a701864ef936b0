package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "bot.db")

	db, err := NewDB(Settings{DbPath: dbPath})
	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database connection: %v", err)
		}
	}()

	var tables []string
	err = db.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"messages", "traffic_daily_locations", "traffic_daily_totals"}, tables)
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bot.db")

	db, err := NewDB(Settings{DbPath: dbPath})
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO traffic_daily_totals (date, total_in, total_out, net_flow, created_at) VALUES (?, ?, ?, ?, ?)`,
		"2026-02-11", 200, 0, 200, "2026-02-11 13:00:00")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(Settings{DbPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM traffic_daily_totals"))
	assert.Equal(t, 1, count)
}

func TestNewDB_EmptyPath(t *testing.T) {
	db, err := NewDB(Settings{})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestRunInTx(t *testing.T) {
	db, err := NewDB(Settings{DbPath: filepath.Join(t.TempDir(), "bot.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	insert := func(tx *sqlx.Tx, id string) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO messages (message_id, content, created_at) VALUES (?, '', '')", id)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM messages"))
		return n
	}

	t.Run("commits on success", func(t *testing.T) {
		err := RunInTx(ctx, db, func(tx *sqlx.Tx) error { return insert(tx, "a") })
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := RunInTx(ctx, db, func(tx *sqlx.Tx) error {
			if err := insert(tx, "b"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("joins the transaction carried by the context", func(t *testing.T) {
		tx, err := db.BeginTxx(ctx, nil)
		require.NoError(t, err)

		err = RunInTx(WithTransaction(ctx, tx), db, func(inner *sqlx.Tx) error {
			assert.Same(t, tx, inner)
			return insert(inner, "c")
		})
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())
		assert.Equal(t, 1, count())
	})
}
