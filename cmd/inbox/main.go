package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/LeventeLantos/webhook-inbox/internal/api"
	"github.com/LeventeLantos/webhook-inbox/internal/cache"
	"github.com/LeventeLantos/webhook-inbox/internal/client"
	"github.com/LeventeLantos/webhook-inbox/internal/config"
	"github.com/LeventeLantos/webhook-inbox/internal/conversation"
	"github.com/LeventeLantos/webhook-inbox/internal/ingest"
	"github.com/LeventeLantos/webhook-inbox/internal/repo"
	"github.com/LeventeLantos/webhook-inbox/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	store, closeStore, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = closeStore() }()

	engine := ingest.NewEngine(store)
	agg := conversation.NewAggregator(store)

	composer := conversation.NewComposer(store, cfg.Outbound.From, cfg.Outbound.ContentMax)
	if cfg.Outbound.ForwardURL != "" {
		composer = composer.WithForwarding(client.NewWebhookClient(cfg.Outbound.ForwardURL))
	}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		composer = composer.WithCache(cache.NewRedisCache(rdb, cfg.Redis.TTL))
	}

	if err := os.MkdirAll(cfg.Ingest.PayloadDir, 0o755); err != nil {
		log.Fatal(err)
	}

	sweeper, err := scheduler.New(cfg.Ingest.SweepInterval, cfg.Ingest.PayloadDir, engine)
	if err != nil {
		log.Fatal(err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.Ingest.Watch {
		watcher, err := ingest.NewWatcher(cfg.Ingest.PayloadDir, engine)
		if err != nil {
			log.Fatal(err)
		}
		watcher.Start()
		defer func() { _ = watcher.Stop() }()
	}

	h := api.NewHandler(engine, agg, composer, sweeper, cfg.Ingest.PayloadDir)
	handler := loggingMiddleware(requestIDMiddleware(api.Router(h)))

	slog.Info("webhook-inbox starting",
		"addr", cfg.Server.Address,
		"driver", cfg.Store.Driver,
		"payload_dir", cfg.Ingest.PayloadDir,
		"watch", cfg.Ingest.Watch,
		"redis", cfg.Redis.Enabled,
	)

	log.Fatal(http.ListenAndServe(cfg.Server.Address, handler))
}

func openStore(cfg config.StoreConfig) (repo.MessageRepository, func() error, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open postgres: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := repo.NewPostgresMessageRepo(db)
		if err := r.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres migration failed: %w", err)
		}
		return r, db.Close, nil

	case config.DriverSQLite:
		r, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", w.Header().Get("X-Request-ID"),
		)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
