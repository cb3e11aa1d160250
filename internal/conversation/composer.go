package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/LeventeLantos/webhook-inbox/internal/cache"
	"github.com/LeventeLantos/webhook-inbox/internal/model"
	"github.com/LeventeLantos/webhook-inbox/internal/repo"
)

// SendClient forwards a composed reply to the provider. Delivery outcome
// comes back later as a status webhook, so forwarding is best-effort.
type SendClient interface {
	Send(ctx context.Context, phoneNumber, text string) (remoteMessageID string, err error)
}

// Composer builds and persists locally originated replies. The record is
// returned for immediate display, so the caller never needs a re-read.
type Composer struct {
	repo       repo.MessageRepository
	from       string
	contentMax int

	client SendClient         // optional
	cache  cache.MessageCache // optional, write-through only
	now    func() time.Time
}

func NewComposer(r repo.MessageRepository, from string, contentMax int) *Composer {
	return &Composer{
		repo:       r,
		from:       from,
		contentMax: contentMax,
		now:        time.Now,
	}
}

// WithForwarding enables best-effort delivery of composed replies to the
// provider webhook.
func (c *Composer) WithForwarding(client SendClient) *Composer {
	c.client = client
	return c
}

// WithCache mirrors freshly persisted replies into the cache. Failures are
// logged, never surfaced; reads do not touch the cache.
func (c *Composer) WithCache(mc cache.MessageCache) *Composer {
	c.cache = mc
	return c
}

// WithClock overrides the timestamp source.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// Post persists a reply to waID and returns the stored record. Empty or
// whitespace-only text fails validation with nothing persisted.
func (c *Composer) Post(ctx context.Context, waID, text string) (model.Message, error) {
	if waID == "" {
		return model.Message{}, ErrCounterpartRequired
	}
	if strings.TrimSpace(text) == "" {
		return model.Message{}, ErrTextRequired
	}

	ts := c.now().Unix()
	msg := model.Message{
		ID:        fmt.Sprintf("local-%d-%s", ts, waID),
		From:      c.from,
		WaID:      waID,
		Text:      text,
		Timestamp: ts,
		Status:    model.Sent,
		Type:      "text",
	}

	if err := c.repo.Insert(ctx, msg); err != nil {
		return model.Message{}, err
	}

	if c.cache != nil {
		if err := c.cache.StoreMessage(ctx, msg); err != nil {
			slog.Warn("failed to cache outbound message", "id", msg.ID, "err", err)
		}
	}

	c.forward(ctx, msg)
	return msg, nil
}

func (c *Composer) forward(ctx context.Context, msg model.Message) {
	if c.client == nil {
		return
	}
	if utf8.RuneCountInString(msg.Text) > c.contentMax {
		slog.Warn("not forwarding outbound message, content exceeds max",
			"id", msg.ID, "max", c.contentMax)
		return
	}

	remoteID, err := c.client.Send(ctx, msg.WaID, msg.Text)
	if err != nil {
		slog.Warn("failed to forward outbound message", "id", msg.ID, "err", err)
		return
	}
	slog.Info("forwarded outbound message", "id", msg.ID, "remote_id", remoteID)
}
