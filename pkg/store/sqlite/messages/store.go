package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/de-tools/flow-atlas/pkg/models/store"
	"github.com/de-tools/flow-atlas/pkg/store/sqlite"
)

// Store is the dedup-by-id message log. Re-inserting a known message id is a no-op.
type Store interface {
	Insert(ctx context.Context, messageID, content, createdAt string) (bool, error)
	Get(ctx context.Context, messageID string) (*store.Message, error)
}

type defaultStore struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &defaultStore{
		db: db,
	}, nil
}

// Insert reports whether a new row was written
func (s *defaultStore) Insert(ctx context.Context, messageID, content, createdAt string) (bool, error) {
	query := `
		INSERT INTO messages (message_id, content, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING
	`
	var inserted bool
	err := sqlite.RunInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, messageID, content, createdAt)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("insert message %s: %w", messageID, err)
	}
	return inserted, nil
}

func (s *defaultStore) Get(ctx context.Context, messageID string) (*store.Message, error) {
	query := `SELECT id, message_id, content, created_at FROM messages WHERE message_id = ?`

	var q sqlx.QueryerContext = s.db
	if tx := sqlite.GetTransaction(ctx); tx != nil {
		q = tx
	}

	var msg store.Message
	err := sqlx.GetContext(ctx, q, &msg, query, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	return &msg, nil
}
