package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
	"github.com/LeventeLantos/webhook-inbox/internal/repo"
	"github.com/LeventeLantos/webhook-inbox/internal/webhook"
)

// Engine applies normalized webhook events against the record store with
// idempotent semantics: messages insert-if-absent, statuses update-if-present.
type Engine struct {
	repo repo.MessageRepository
}

func NewEngine(r repo.MessageRepository) *Engine {
	return &Engine{repo: r}
}

// Apply processes events strictly in order, best-effort: a failing event is
// collected and the rest still run. The returned error joins all per-event
// store failures; dropped statuses and duplicate messages are not failures.
func (e *Engine) Apply(ctx context.Context, events []webhook.Event) error {
	var errs []error
	for _, ev := range events {
		switch ev := ev.(type) {
		case webhook.MessageEvent:
			if ev.ID == "" {
				errs = append(errs, errors.New("message event without id"))
				continue
			}

			inserted, err := e.repo.UpsertIfAbsent(ctx, model.Message{
				ID:        ev.ID,
				From:      ev.From,
				WaID:      ev.WaID,
				Text:      ev.Text,
				Timestamp: ev.Timestamp,
				Status:    model.Sent,
				Type:      ev.Type,
			})
			if err != nil {
				errs = append(errs, fmt.Errorf("upsert message %s: %w", ev.ID, err))
				continue
			}
			if !inserted {
				slog.Debug("duplicate message ignored", "id", ev.ID)
			}

		case webhook.StatusEvent:
			if ev.ID == "" {
				errs = append(errs, errors.New("status event without id"))
				continue
			}

			updated, err := e.repo.UpdateStatus(ctx, ev.ID, model.Status(ev.Status), ev.StatusTime)
			if err != nil {
				errs = append(errs, fmt.Errorf("update status for %s: %w", ev.ID, err))
				continue
			}
			if !updated {
				slog.Warn("dropping status for unknown message", "id", ev.ID, "status", ev.Status)
			}
		}
	}
	return errors.Join(errs...)
}

// IngestPayload decodes one raw payload and applies its events.
func (e *Engine) IngestPayload(ctx context.Context, data []byte) error {
	p, err := webhook.Decode(data)
	if err != nil {
		return err
	}
	return e.Apply(ctx, webhook.Normalize(p))
}

// Result aggregates a batch ingestion: processed counts sources applied
// without error; Errors holds one entry per failed source. There is no
// rollback of partially applied sources.
type Result struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors,omitempty"`
}

// IngestSources applies each payload source in order, continuing past
// failures.
func (e *Engine) IngestSources(ctx context.Context, sources [][]byte) Result {
	var res Result
	for i, src := range sources {
		if err := e.IngestPayload(ctx, src); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("source %d: %v", i, err))
			continue
		}
		res.Processed++
	}
	return res
}

// IngestDir ingests every *.json file in dir, in name order. Re-processing a
// file is safe: message upserts are idempotent. The returned error is non-nil
// only when the directory itself cannot be read.
func (e *Engine) IngestDir(ctx context.Context, dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("cannot read payload directory %s: %w", dir, err)
	}

	var res Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}

		if err := e.IngestPayload(ctx, data); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		res.Processed++
	}
	return res, nil
}
