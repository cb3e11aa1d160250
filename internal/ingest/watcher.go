package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watcherIngestTimeout = 30 * time.Second

// Watcher ingests payload files as soon as they appear in the payload
// directory. The periodic sweep remains the safety net: a file the watcher
// misses (or sees mid-write) is picked up on the next sweep, and idempotent
// upserts make double processing harmless.
type Watcher struct {
	dir    string
	engine *Engine
	fw     *fsnotify.Watcher
	done   chan struct{}
}

func NewWatcher(dir string, engine *Engine) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		dir:    dir,
		engine: engine,
		fw:     fw,
		done:   make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go func() {
		defer close(w.done)

		slog.Info("payload watcher started", "dir", w.dir)

		for {
			select {
			case ev, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
					continue
				}
				if !strings.HasSuffix(ev.Name, ".json") {
					continue
				}
				w.ingestFile(ev.Name)

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				slog.Error("payload watcher error", "err", err)
			}
		}
	}()
}

func (w *Watcher) Stop() error {
	err := w.fw.Close()
	<-w.done
	slog.Info("payload watcher stopped")
	return err
}

func (w *Watcher) ingestFile(path string) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("cannot read payload file", "file", name, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), watcherIngestTimeout)
	defer cancel()

	if err := w.engine.IngestPayload(ctx, data); err != nil {
		slog.Error("failed to ingest payload file", "file", name, "err", err)
		return
	}
	slog.Info("ingested payload file", "file", name)
}
