package repo

import (
	"context"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
)

// MessageRepository is the record-store contract. Single-record operations are
// atomic; there are no cross-record transactions.
type MessageRepository interface {
	// UpsertIfAbsent inserts the message unless a record with the same id
	// already exists. It reports whether a row was inserted and never
	// overwrites an existing record.
	UpsertIfAbsent(ctx context.Context, m model.Message) (bool, error)

	// UpdateStatus sets status and statusTime on the record with the given
	// id, reporting whether such a record existed.
	UpdateStatus(ctx context.Context, id string, status model.Status, statusTime *int64) (bool, error)

	// Insert creates a record unconditionally; a duplicate id is an error.
	Insert(ctx context.Context, m model.Message) error

	// ListByCounterpart returns every record for one wa_id ordered by
	// ascending timestamp, insertion order preserved for equal timestamps.
	ListByCounterpart(ctx context.Context, waID string) ([]model.Message, error)

	// ListConversations returns one row per wa_id carrying its most recent
	// message, ordered by that message's timestamp descending. Equal
	// timestamps within a wa_id resolve to the lexicographically highest id.
	ListConversations(ctx context.Context) ([]model.Conversation, error)
}
