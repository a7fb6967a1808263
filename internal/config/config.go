package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"

	QueryBackendSQLite = "sqlite"
	QueryBackendDuckDB = "duckdb"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Session       SessionConfig
	Query         QueryConfig
	ObjectStore   ObjectStoreConfig
	Snapshot      SnapshotConfig
	AI            AIConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	StaticDir    string
}

type SessionConfig struct {
	Backend         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type QueryConfig struct {
	Backend      string
	DatabasePath string
	RowLimit     int
	Timeout      time.Duration
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type SnapshotConfig struct {
	Name string
}

type AIConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	// HistoryLimit is the number of prior turns sent to the model. Zero
	// means the translator default; negative sends none.
	HistoryLimit int
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("QUERYCHAT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid QUERYCHAT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	// Variables the original deployment used are honored before the prefixed ones.
	if raw, ok := lookup("DATABASE_PATH"); ok {
		cfg.Query.DatabasePath = strings.TrimPrefix(strings.TrimSpace(raw), "sqlite:///")
	}
	if raw, ok := lookup("OPENAI_API_KEY"); ok {
		cfg.AI.APIKey = strings.TrimSpace(raw)
	}
	if raw, ok := lookup("OPENAI_MODEL"); ok && strings.TrimSpace(raw) != "" {
		cfg.AI.Model = strings.TrimSpace(raw)
	}

	err := errors.Join(
		applyString(lookup, "QUERYCHAT_SERVICE_NAME", &cfg.Service.Name),
		applyString(lookup, "QUERYCHAT_HTTP_ADDR", &cfg.HTTP.Address),
		applyDuration(lookup, "QUERYCHAT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout),
		applyDuration(lookup, "QUERYCHAT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout),
		applyDuration(lookup, "QUERYCHAT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout),
		applyString(lookup, "QUERYCHAT_STATIC_DIR", &cfg.HTTP.StaticDir),

		applyString(lookup, "QUERYCHAT_SESSION_BACKEND", &cfg.Session.Backend),
		applyString(lookup, "QUERYCHAT_SESSION_DSN", &cfg.Session.DSN),
		applyInt(lookup, "QUERYCHAT_SESSION_MAX_OPEN_CONNS", &cfg.Session.MaxOpenConns),
		applyInt(lookup, "QUERYCHAT_SESSION_MAX_IDLE_CONNS", &cfg.Session.MaxIdleConns),
		applyDuration(lookup, "QUERYCHAT_SESSION_CONN_MAX_IDLE_TIME", &cfg.Session.ConnMaxIdleTime),
		applyDuration(lookup, "QUERYCHAT_SESSION_CONN_MAX_LIFETIME", &cfg.Session.ConnMaxLifetime),

		applyString(lookup, "QUERYCHAT_QUERY_BACKEND", &cfg.Query.Backend),
		applyString(lookup, "QUERYCHAT_DATABASE_PATH", &cfg.Query.DatabasePath),
		applyInt(lookup, "QUERYCHAT_QUERY_ROW_LIMIT", &cfg.Query.RowLimit),
		applyDuration(lookup, "QUERYCHAT_QUERY_TIMEOUT", &cfg.Query.Timeout),

		applyString(lookup, "QUERYCHAT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint),
		applyString(lookup, "QUERYCHAT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region),
		applyString(lookup, "QUERYCHAT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket),
		applyString(lookup, "QUERYCHAT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID),
		applyString(lookup, "QUERYCHAT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey),
		applyBool(lookup, "QUERYCHAT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL),
		applyString(lookup, "QUERYCHAT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix),
		applyBool(lookup, "QUERYCHAT_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket),
		applyString(lookup, "QUERYCHAT_SNAPSHOT_NAME", &cfg.Snapshot.Name),

		applyString(lookup, "QUERYCHAT_AI_BASE_URL", &cfg.AI.BaseURL),
		applyString(lookup, "QUERYCHAT_AI_API_KEY", &cfg.AI.APIKey),
		applyString(lookup, "QUERYCHAT_AI_MODEL", &cfg.AI.Model),
		applyFloat(lookup, "QUERYCHAT_AI_TEMPERATURE", &cfg.AI.Temperature),
		applyDuration(lookup, "QUERYCHAT_AI_TIMEOUT", &cfg.AI.Timeout),
		applyInt(lookup, "QUERYCHAT_AI_HISTORY_LIMIT", &cfg.AI.HistoryLimit),

		applyBool(lookup, "QUERYCHAT_LOG_JSON", &cfg.Observability.LogJSON),
		applyLogLevel(lookup, "QUERYCHAT_LOG_LEVEL", &cfg.Observability.LogLevel),
		applyBool(lookup, "QUERYCHAT_AUTH_REQUIRED", &cfg.Auth.Required),
		applyString(lookup, "QUERYCHAT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys),
	)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.HTTP.Address == "" {
		return fmt.Errorf("http address is required")
	}
	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendPostgres:
		if c.Session.DSN == "" {
			return fmt.Errorf("session dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid QUERYCHAT_SESSION_BACKEND: %q", c.Session.Backend)
	}
	switch c.Query.Backend {
	case QueryBackendSQLite:
		if c.Query.DatabasePath == "" {
			return fmt.Errorf("database path is required for the sqlite backend")
		}
	case QueryBackendDuckDB:
		if c.Snapshot.Name == "" {
			return fmt.Errorf("snapshot name is required for the duckdb backend")
		}
	default:
		return fmt.Errorf("invalid QUERYCHAT_QUERY_BACKEND: %q", c.Query.Backend)
	}
	if c.Query.RowLimit <= 0 {
		return fmt.Errorf("query row limit must be > 0")
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "querychat-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Session: SessionConfig{
			Backend:         SessionBackendMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Query: QueryConfig{
			Backend:      QueryBackendSQLite,
			DatabasePath: "data/windforest.db",
			RowLimit:     100,
			Timeout:      10 * time.Second,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "querychat",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			AutoCreateBucket: true,
		},
		Snapshot: SnapshotConfig{
			Name: "windforest",
		},
		AI: AIConfig{
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o",
			Temperature:  0,
			Timeout:      30 * time.Second,
			HistoryLimit: 10,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
