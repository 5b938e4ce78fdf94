package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StorageJSON     = "json"
	StoragePostgres = "postgres"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MetricsPort int    `toml:"metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	Storage          string `toml:"storage"`
	EntriesPath      string `toml:"entries_path"`
	LogPath          string `toml:"log_path"`
	CatalogPath      string `toml:"catalog_path"`
	NewExercisesPath string `toml:"new_exercises_path"`
	PostgresHost     string `toml:"postgres_host"`
	PostgresPort     string `toml:"postgres_port"`
	PostgresDBName   string `toml:"postgres_db_name"`
	PostgresUser     string `toml:"postgres_user"`

	// redis, used for the run lock and rate limiting. The lock is renewed
	// every run_lock_ttl/3 while a run is alive, so the ttl only bounds how
	// long a crashed run blocks the next one.
	RedisHost          string   `toml:"redis_host"`
	RedisPort          string   `toml:"redis_port"`
	RunLockTTL         Duration `toml:"run_lock_ttl"`
	RunRateLimitPerMin int      `toml:"run_rate_limit_per_min"`

	// how long GET /workout/exercises responses are cached, runs over http
	// clear the cache, cli runs do not
	CatalogCacheTTL Duration `toml:"catalog_cache_ttl"`

	AllowedOrigins []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load decodes the TOML file at path and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not found in %s", env, path)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case "", StorageJSON:
		c.Storage = StorageJSON
		if c.EntriesPath == "" || c.LogPath == "" || c.CatalogPath == "" {
			return errors.New("json storage needs entries_path, log_path and catalog_path")
		}
	case StoragePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres storage needs postgres_host, postgres_port and postgres_db_name")
		}
	default:
		return fmt.Errorf("unknown storage: %s", c.Storage)
	}
	return nil
}

// RedisEnabled reports whether a redis host is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Duration reads values like "90s" or "2m" from the TOML file.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}
