package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Ingest   IngestConfig
	Outbound OutboundConfig
}

type ServerConfig struct {
	Address string
}

type StoreConfig struct {
	Driver      string
	PostgresURL string
	SQLitePath  string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type IngestConfig struct {
	PayloadDir    string
	Watch         bool
	SweepInterval time.Duration
}

type OutboundConfig struct {
	From       string
	ForwardURL string
	ContentMax int
}

func LoadAll() (*Config, error) {
	var errs []error

	sweepSecs, err := getEnvInt("SWEEP_INTERVAL_SECONDS", 120)
	if err != nil {
		errs = append(errs, err)
	}
	watch, err := getEnvBool("PAYLOAD_WATCH", true)
	if err != nil {
		errs = append(errs, err)
	}
	contentMax, err := getEnvInt("CONTENT_MAX", 4096)
	if err != nil {
		errs = append(errs, err)
	}
	redisCfg, err := loadRedisConfig()
	if err != nil {
		errs = append(errs, err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", DriverSQLite),
			PostgresURL: os.Getenv("POSTGRES_URL"),
			SQLitePath:  getEnv("SQLITE_PATH", "inbox.db"),
		},
		Ingest: IngestConfig{
			PayloadDir:    getEnv("PAYLOAD_DIR", "payloads"),
			Watch:         watch,
			SweepInterval: time.Duration(sweepSecs) * time.Second,
		},
		Outbound: OutboundConfig{
			From:       getEnv("BUSINESS_NUMBER", "916369114503"),
			ForwardURL: os.Getenv("FORWARD_URL"),
			ContentMax: contentMax,
		},
		Redis: redisCfg,
	}

	errs = append(errs, validate(cfg)...)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}
	ttlSecs, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttlSecs) * time.Second,
	}, nil
}

func validate(cfg *Config) []error {
	var errs []error

	switch cfg.Store.Driver {
	case DriverPostgres:
		if cfg.Store.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when STORE_DRIVER=postgres"))
		}
	case DriverSQLite:
		if cfg.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER: %s", cfg.Store.Driver))
	}

	if cfg.Ingest.PayloadDir == "" {
		errs = append(errs, errors.New("PAYLOAD_DIR must not be empty"))
	}
	if cfg.Ingest.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL_SECONDS must be > 0"))
	}
	if cfg.Outbound.From == "" {
		errs = append(errs, errors.New("BUSINESS_NUMBER must not be empty"))
	}
	if cfg.Outbound.ContentMax <= 0 {
		errs = append(errs, errors.New("CONTENT_MAX must be > 0"))
	}

	return errs
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	return b, nil
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
