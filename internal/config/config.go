package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RELVIEW_SERVER_ADDR.
const EnvPrefix = "RELVIEW"

// Config holds server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Redis   RedisConfig   `mapstructure:"redis"`
	SQL     SQLConfig     `mapstructure:"sql"`
	Flow    FlowConfig    `mapstructure:"flow"`
	Memo    MemoConfig    `mapstructure:"memo"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// TabsFile is an optional YAML file of tab declarations.
	TabsFile string `mapstructure:"tabs_file"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	// Backend is one of memory, file, redis or sql.
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	Dir        string        `mapstructure:"dir"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`

	// EncryptionKey is a base64 AES-256 key; sessions are stored in clear when empty.
	EncryptionKey string `mapstructure:"encryption_key"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`

	// Lock serializes session access across replicas.
	Lock bool `mapstructure:"lock"`
}

// SQLConfig holds database settings for the sql backend.
type SQLConfig struct {
	// Driver is "pgx" or "sqlite3".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// FlowConfig holds form flow settings.
type FlowConfig struct {
	LoginRedirect string `mapstructure:"login_redirect"`
	HomeRoute     string `mapstructure:"home_route"`
}

// MemoConfig holds data view caching settings.
type MemoConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Duration time.Duration `mapstructure:"duration"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from defaults, the YAML file at path (or
// $RELVIEW_CONFIG) and RELVIEW_* environment variables, in increasing priority.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.dir", ".sessions")
	v.SetDefault("session.cookie_name", "relview_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "relview:")
	v.SetDefault("redis.lock", false)
	v.SetDefault("sql.driver", "sqlite3")
	v.SetDefault("sql.dsn", "file:relview.db")
	v.SetDefault("flow.login_redirect", "/")
	v.SetDefault("flow.home_route", "homepage")
	v.SetDefault("memo.enabled", true)
	v.SetDefault("memo.duration", "5m")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("tabs_file", "")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks enumerations and keys.
func (c Config) Validate() error {
	switch c.Session.Backend {
	case "memory", "file", "redis", "sql":
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.Backend == "sql" && c.SQL.Driver != "pgx" && c.SQL.Driver != "sqlite3" {
		return fmt.Errorf("unknown sql driver %q", c.SQL.Driver)
	}
	if _, err := c.Session.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes the session encryption key; nil when none is configured.
func (s SessionConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("session encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
