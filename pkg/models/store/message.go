package store

// Message is an entry of the dedup-by-id message log
type Message struct {
	ID        int64  `db:"id"`
	MessageID string `db:"message_id"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
}
