// Package config loads linkbot configuration from defaults, an optional YAML
// file and the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// PathEnvVar names the config file when --config is not given
const PathEnvVar = "LINKBOT_CONFIG"

// Config is the full process configuration
type Config struct {
	LogLevel string        `yaml:"log_level" env:"LOG_LEVEL"`
	Console  ConsoleConfig `yaml:"console" envPrefix:"CRCON_"`
	Discord  DiscordConfig `yaml:"discord" envPrefix:"DISCORD_"`
	Storage  StorageConfig `yaml:"storage"`
	HTTP     HTTPConfig    `yaml:"http" envPrefix:"HTTP_"`
	Jobs     JobsConfig    `yaml:"jobs" envPrefix:"JOBS_"`
}

// ConsoleConfig configures access to the game-server console API
type ConsoleConfig struct {
	BaseURL             string        `yaml:"base_url" env:"BASE_URL"`
	APIToken            string        `yaml:"api_token" env:"API_TOKEN"`
	Username            string        `yaml:"username" env:"USERNAME"`
	Password            string        `yaml:"password" env:"PASSWORD"`
	Timeout             time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries          int           `yaml:"max_retries" env:"MAX_RETRIES"`
	BaseBackoff         time.Duration `yaml:"base_backoff" env:"BASE_BACKOFF"`
	SessionTTL          time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	BroadcastClearAfter time.Duration `yaml:"broadcast_clear_after" env:"BROADCAST_CLEAR_AFTER"`
	MessageDelay        time.Duration `yaml:"message_delay" env:"MESSAGE_DELAY"`
	MessageSender       string        `yaml:"message_sender" env:"MESSAGE_SENDER"`
	PlayStationPrefixes []string      `yaml:"playstation_prefixes" env:"PLAYSTATION_PREFIXES" envSeparator:","`
}

// DiscordConfig configures the chat adapter. An empty token disables it.
type DiscordConfig struct {
	Token          string        `yaml:"token" env:"TOKEN"`
	GuildID        string        `yaml:"guild_id" env:"GUILD_ID"`
	AdminRoleID    string        `yaml:"admin_role_id" env:"ADMIN_ROLE_ID"`
	CommandTimeout time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT"`
}

// StorageConfig selects and configures persistence
type StorageConfig struct {
	Type           string `yaml:"type" env:"STORAGE_TYPE"`
	RedisURL       string `yaml:"redis_url" env:"REDIS_URL"`
	RedisKeyPrefix string `yaml:"redis_key_prefix" env:"REDIS_KEY_PREFIX"`
	SQLitePath     string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

// HTTPConfig configures the status/admin API
type HTTPConfig struct {
	Enabled      bool   `yaml:"enabled" env:"ENABLED"`
	Host         string `yaml:"host" env:"HOST"`
	Port         int    `yaml:"port" env:"PORT"`
	APITokenHash string `yaml:"api_token_hash" env:"API_TOKEN_HASH"`
}

// JobsConfig configures the background scheduler
type JobsConfig struct {
	InitialDelay        time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	VipScanInterval     time.Duration `yaml:"vip_scan_interval" env:"VIP_SCAN_INTERVAL"`
	LeaderboardInterval time.Duration `yaml:"leaderboard_interval" env:"LEADERBOARD_INTERVAL"`
	ContestInterval     time.Duration `yaml:"contest_interval" env:"CONTEST_INTERVAL"`
	VipWarnDays         int           `yaml:"vip_warn_days" env:"VIP_WARN_DAYS"`
}

// Default returns the built-in defaults
func Default() Config {
	return Config{
		LogLevel: "INFO",
		Console: ConsoleConfig{
			Timeout:             10 * time.Second,
			MaxRetries:          3,
			BaseBackoff:         time.Second,
			SessionTTL:          25 * time.Minute,
			BroadcastClearAfter: 30 * time.Second,
			MessageDelay:        100 * time.Millisecond,
			MessageSender:       "Discord",
		},
		Discord: DiscordConfig{
			CommandTimeout: 60 * time.Second,
		},
		Storage: StorageConfig{
			Type:       StorageTypeSQLite,
			SQLitePath: "linkbot.db",
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Port:    8080,
		},
		Jobs: JobsConfig{
			InitialDelay:        30 * time.Second,
			VipScanInterval:     time.Hour,
			LeaderboardInterval: time.Hour,
			ContestInterval:     time.Minute,
			VipWarnDays:         3,
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// LINKBOT_CONFIG is consulted; with neither, only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with the configuration at once
func (c *Config) Validate() error {
	var errs []error

	if c.Console.BaseURL == "" {
		errs = append(errs, errors.New("console base URL is required (CRCON_BASE_URL)"))
	} else if u, err := url.Parse(c.Console.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("console base URL %q must be an absolute http(s) URL", c.Console.BaseURL))
	}
	if (c.Console.Username == "") != (c.Console.Password == "") {
		errs = append(errs, errors.New("console username and password must be set together"))
	}
	if c.Console.MaxRetries < 0 {
		errs = append(errs, errors.New("console max retries must not be negative"))
	}

	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STORAGE_TYPE=redis"))
		}
	case StorageTypeSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE_TYPE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage type %q: must be memory, redis or sqlite", c.Storage.Type))
	}

	if c.HTTP.Enabled && (c.HTTP.Port <= 0 || c.HTTP.Port > 65535) {
		errs = append(errs, fmt.Errorf("HTTP port %d is out of range", c.HTTP.Port))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LogValue hides credentials when the config is logged
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("console_base_url", c.Console.BaseURL),
		slog.String("console_auth", c.consoleAuthMode()),
		slog.String("storage", c.Storage.Type),
		slog.Bool("discord_enabled", c.Discord.Token != ""),
		slog.Bool("http_enabled", c.HTTP.Enabled),
		slog.Int("http_port", c.HTTP.Port),
	)
}

func (c Config) consoleAuthMode() string {
	switch {
	case c.Console.APIToken != "":
		return "token"
	case c.Console.Username != "":
		return "login"
	default:
		return "none"
	}
}
