package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LeventeLantos/webhook-inbox/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteMessageRepo is the local/embedded store, used when no Postgres URL is
// configured and by tests. Insertion order comes from the implicit rowid.
type SQLiteMessageRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path and applies
// the schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteMessageRepo, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open sqlite database: %w", err)
	}

	// SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	r := &SQLiteMessageRepo{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migration failed: %w", err)
	}
	return r, nil
}

func (r *SQLiteMessageRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteMessageRepo) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			from_id     TEXT NOT NULL,
			wa_id       TEXT NOT NULL,
			text        TEXT NOT NULL DEFAULT '',
			timestamp   INTEGER NOT NULL,
			status      TEXT NOT NULL,
			status_time INTEGER,
			type        TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_messages_wa_id ON messages (wa_id, timestamp);
	`)
	return err
}

func (r *SQLiteMessageRepo) UpsertIfAbsent(ctx context.Context, m model.Message) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO messages (id, from_id, wa_id, text, timestamp, status, status_time, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.From, m.WaID, m.Text, m.Timestamp, string(m.Status), m.StatusTime, m.Type)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteMessageRepo) UpdateStatus(ctx context.Context, id string, status model.Status, statusTime *int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET status = ?, status_time = ?
		WHERE id = ?
	`, string(status), statusTime, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteMessageRepo) Insert(ctx context.Context, m model.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_id, wa_id, text, timestamp, status, status_time, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.From, m.WaID, m.Text, m.Timestamp, string(m.Status), m.StatusTime, m.Type)
	return err
}

func (r *SQLiteMessageRepo) ListByCounterpart(ctx context.Context, waID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_id, wa_id, text, timestamp, status, status_time, type
		FROM messages
		WHERE wa_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`, waID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *SQLiteMessageRepo) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wa_id, text, timestamp, from_id
		FROM (
			SELECT wa_id, text, timestamp, from_id,
			       ROW_NUMBER() OVER (PARTITION BY wa_id ORDER BY timestamp DESC, id DESC) AS rn
			FROM messages
		)
		WHERE rn = 1
		ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.WaID, &c.LastMessage, &c.LastTimestamp, &c.From); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
