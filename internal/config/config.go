package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Owner     OwnerConfig     `koanf:"owner"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Reminder  ReminderConfig  `koanf:"reminder"`
	Twilio    TwilioConfig    `koanf:"twilio"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Addr        string   `koanf:"addr"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

// OwnerConfig holds the fixed pseudo-user every API call is scoped to.
// It is configuration, not a package constant, so a real multi-user story
// only has to change the wiring.
type OwnerConfig struct {
	ID string `koanf:"id"`
}

type AuthConfig struct {
	Mode        string `koanf:"mode"` // none | apikey | bearer
	APIKey      string `koanf:"api_key"`
	BearerToken string `koanf:"bearer_token"`
}

type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

type ReminderConfig struct {
	IntervalSeconds    int      `koanf:"interval_seconds"`
	ScanTimeoutSeconds int      `koanf:"scan_timeout_seconds"`
	Recipients         []string `koanf:"recipients"`
}

func (c ReminderConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c ReminderConfig) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutSeconds) * time.Second
}

type TwilioConfig struct {
	AccountSID string `koanf:"account_sid"`
	AuthToken  string `koanf:"auth_token"`
	FromNumber string `koanf:"from_number"`
}

// Configured reports whether telephony credentials are present; without them
// the reminder worker falls back to log-only notifications.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// Load layers defaults, an optional YAML file, and SMART_TASKS_* environment
// variables, later sources overriding earlier ones. Env keys use "__" as the
// section separator so single "_" survives inside key names, e.g.
// SMART_TASKS_AUTH__API_KEY -> auth.api_key.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("SMART_TASKS_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SMART_TASKS_")
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LogLevel maps the configured level name onto slog, defaulting to info.
func (c LogConfig) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
