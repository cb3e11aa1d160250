package conversation

import (
	"context"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
	"github.com/LeventeLantos/webhook-inbox/internal/repo"
)

// Aggregator is the read side: the conversation list and per-counterpart
// timelines. Both are uncached reads of the store as it is right now.
type Aggregator struct {
	repo repo.MessageRepository
}

func NewAggregator(r repo.MessageRepository) *Aggregator {
	return &Aggregator{repo: r}
}

// Conversations returns one entry per counterpart, most recent message first.
func (a *Aggregator) Conversations(ctx context.Context) ([]model.Conversation, error) {
	return a.repo.ListConversations(ctx)
}

// Timeline returns every message exchanged with one counterpart, oldest
// first.
func (a *Aggregator) Timeline(ctx context.Context, waID string) ([]model.Message, error) {
	if waID == "" {
		return nil, ErrCounterpartRequired
	}
	return a.repo.ListByCounterpart(ctx, waID)
}
