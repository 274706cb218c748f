package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ForwardModeDirect = "direct"
	ForwardModeOutbox = "outbox"
)

type Config struct {
	ProjectID          string   `envconfig:"FIREBASE_PROJECT_ID"`
	GoogleCloudProject string   `envconfig:"GOOGLE_CLOUD_PROJECT"`
	ServiceAccountJSON string   `envconfig:"FIREBASE_SERVICE_ACCOUNT_JSON"`
	Port               string   `envconfig:"PORT" default:"8080"`
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat          string   `envconfig:"LOG_FORMAT" default:"json"`

	// Receiving side of the sync protocol.
	SyncSecret      string `envconfig:"SUPABASE_SYNC_SECRET"`
	DefaultCurrency string `envconfig:"DEFAULT_CURRENCY" default:"TSh"`

	// Sending side: where the order webhook forwards payment events.
	ForwardURL     string        `envconfig:"FIREBASE_SYNC_URL"`
	ForwardSecret  string        `envconfig:"FIREBASE_SYNC_SECRET"`
	ForwardMode    string        `envconfig:"SYNC_FORWARD_MODE" default:"direct"`
	ForwardTimeout time.Duration `envconfig:"SYNC_FORWARD_TIMEOUT" default:"10s"`

	Supabase SupabaseConfig
	Relay    RelayConfig
}

type SupabaseConfig struct {
	URL             string        `envconfig:"SUPABASE_URL"`
	ServiceRoleKey  string        `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`
	DatabaseURL     string        `envconfig:"SUPABASE_DB_URL"`
	MaxOpenConns    int           `envconfig:"SUPABASE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SUPABASE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SUPABASE_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type RelayConfig struct {
	BatchSize    int           `envconfig:"SYNC_RELAY_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"SYNC_RELAY_POLL_INTERVAL" default:"2s"`
	MaxAttempts  int           `envconfig:"SYNC_RELAY_MAX_ATTEMPTS" default:"10"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	// FIREBASE_PROJECT_ID wins, GOOGLE_CLOUD_PROJECT is the Cloud Run fallback
	if cfg.ProjectID == "" {
		cfg.ProjectID = cfg.GoogleCloudProject
	}

	allowed := []string{}
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	cfg.AllowedOrigins = allowed

	cfg.ForwardMode = strings.ToLower(strings.TrimSpace(cfg.ForwardMode))
	switch cfg.ForwardMode {
	case "":
		cfg.ForwardMode = ForwardModeDirect
	case ForwardModeDirect, ForwardModeOutbox:
	default:
		return Config{}, fmt.Errorf("SYNC_FORWARD_MODE must be %q or %q, got %q", ForwardModeDirect, ForwardModeOutbox, cfg.ForwardMode)
	}

	return cfg, nil
}

// HasDatabase reports whether a Supabase Postgres connection is configured.
func (c Config) HasDatabase() bool {
	return strings.TrimSpace(c.Supabase.DatabaseURL) != ""
}

// HasAuthAdmin reports whether the Supabase auth admin API is configured.
func (c Config) HasAuthAdmin() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}
