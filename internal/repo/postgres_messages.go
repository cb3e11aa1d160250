package repo

import (
	"context"
	"database/sql"

	"github.com/LeventeLantos/webhook-inbox/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresMessageRepo struct {
	db *sql.DB
}

func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// Migrate creates the messages table. seq records insertion order and backs
// the stable sort for equal timestamps; it is never exposed.
func (r *PostgresMessageRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			seq         BIGSERIAL,
			from_id     TEXT NOT NULL,
			wa_id       TEXT NOT NULL,
			text        TEXT NOT NULL DEFAULT '',
			timestamp   BIGINT NOT NULL,
			status      TEXT NOT NULL,
			status_time BIGINT,
			type        TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_messages_wa_id ON messages (wa_id, timestamp);
	`)
	return err
}

func (r *PostgresMessageRepo) UpsertIfAbsent(ctx context.Context, m model.Message) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_id, wa_id, text, timestamp, status, status_time, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
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

func (r *PostgresMessageRepo) UpdateStatus(ctx context.Context, id string, status model.Status, statusTime *int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET status = $2, status_time = $3
		WHERE id = $1
	`, id, string(status), statusTime)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresMessageRepo) Insert(ctx context.Context, m model.Message) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_id, wa_id, text, timestamp, status, status_time, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.From, m.WaID, m.Text, m.Timestamp, string(m.Status), m.StatusTime, m.Type)
	return err
}

func (r *PostgresMessageRepo) ListByCounterpart(ctx context.Context, waID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, from_id, wa_id, text, timestamp, status, status_time, type
		FROM messages
		WHERE wa_id = $1
		ORDER BY timestamp ASC, seq ASC
	`, waID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PostgresMessageRepo) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wa_id, text, timestamp, from_id
		FROM (
			SELECT DISTINCT ON (wa_id) wa_id, text, timestamp, from_id
			FROM messages
			ORDER BY wa_id, timestamp DESC, id DESC
		) last
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

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var out []model.Message
	for rows.Next() {
		var m model.Message
		var status string
		var statusTime sql.NullInt64

		if err := rows.Scan(
			&m.ID,
			&m.From,
			&m.WaID,
			&m.Text,
			&m.Timestamp,
			&status,
			&statusTime,
			&m.Type,
		); err != nil {
			return nil, err
		}

		m.Status = model.Status(status)
		if statusTime.Valid {
			t := statusTime.Int64
			m.StatusTime = &t
		}

		out = append(out, m)
	}
	return out, rows.Err()
}
