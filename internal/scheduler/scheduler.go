package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeventeLantos/webhook-inbox/internal/ingest"
)

// Sweeper periodically re-ingests the payload directory. Together with the
// filesystem watcher this gives at-least-once pickup of payload files; the
// engine's idempotent upserts absorb the repeats.
type Sweeper struct {
	interval time.Duration
	dir      string
	engine   *ingest.Engine

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, dir string, engine *ingest.Engine) (*Sweeper, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if dir == "" {
		return nil, errors.New("payload directory must not be empty")
	}
	if engine == nil {
		return nil, errors.New("engine must not be nil")
	}
	return &Sweeper{
		interval: interval,
		dir:      dir,
		engine:   engine,
		done:     make(chan struct{}),
	}, nil
}

func (s *Sweeper) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("payload sweeper started", "interval", s.interval.String(), "dir", s.dir)

		s.safeSweep(ctx)

		for {
			select {
			case <-ctx.Done():
				slog.Info("payload sweeper stopping")
				return
			case <-ticker.C:
				s.safeSweep(ctx)
			}
		}
	}()

	return true
}

func (s *Sweeper) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	slog.Info("payload sweeper stopped")
	return true
}

func (s *Sweeper) IsRunning() bool {
	return s.running.Load()
}

func (s *Sweeper) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("payload sweep panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	res, err := s.engine.IngestDir(ctx, s.dir)
	if err != nil {
		slog.Error("payload sweep failed", "err", err)
		return
	}

	slog.Info("payload sweep completed",
		"processed", res.Processed,
		"failed", len(res.Errors),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
