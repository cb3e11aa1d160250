package cache

import (
	"context"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
)

type MessageCache interface {
	StoreMessage(ctx context.Context, m model.Message) error
}
