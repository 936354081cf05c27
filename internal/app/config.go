package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursemarket-client/internal/platform/envutil"
	"github.com/yungbote/coursemarket-client/internal/platform/logger"
)

const (
	SessionSQLite = "sqlite"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

type Config struct {
	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`

	SessionBackend    string `yaml:"session_backend"`
	SessionSQLitePath string `yaml:"session_sqlite_path"`
	RedisAddr         string `yaml:"redis_addr"`
	RedisSessionKey   string `yaml:"redis_session_key"`
	// RealtimeBus mirrors container events through redis to other shells.
	RealtimeBus     bool   `yaml:"realtime_bus"`
	RealtimeChannel string `yaml:"realtime_channel"`

	ShellAddr      string   `yaml:"shell_addr"`
	AllowedOrigins []string `yaml:"shell_allowed_origins"`

	ServiceName     string  `yaml:"service_name"`
	Environment     string  `yaml:"environment"`
	OtelEnabled     bool    `yaml:"otel_enabled"`
	OtelSampleRatio float64 `yaml:"otel_sampler_ratio"`
	OtelEndpoint    string  `yaml:"otel_exporter_otlp_endpoint"`
	OtelHeaders     string  `yaml:"otel_exporter_otlp_headers"`
	OtelInsecure    bool    `yaml:"otel_exporter_otlp_insecure"`

	GoogleClientID string `yaml:"google_client_id"`
	FacebookAppID  string `yaml:"facebook_app_id"`
	ChatGreeting   string `yaml:"chat_greeting"`

	PaymePopupWidth  int `yaml:"payme_popup_width"`
	PaymePopupHeight int `yaml:"payme_popup_height"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		APIBaseURL: envutil.String("API_BASE_URL", "http://localhost:8000/api"),
		APITimeout: envutil.Seconds("API_TIMEOUT_SECONDS", 30*time.Second),

		SessionBackend:    strings.ToLower(envutil.String("SESSION_BACKEND", SessionSQLite)),
		SessionSQLitePath: envutil.String("SESSION_SQLITE_PATH", "coursemarket.db"),
		RedisAddr:         envutil.String("REDIS_ADDR", ""),
		RedisSessionKey:   envutil.String("REDIS_SESSION_KEY", "coursemarket:session"),
		RealtimeBus:       envutil.Bool("REALTIME_BUS", false),
		RealtimeChannel:   envutil.String("REALTIME_CHANNEL", "coursemarket:events"),

		ShellAddr:      envutil.String("SHELL_ADDR", ":5180"),
		AllowedOrigins: envutil.List("SHELL_ALLOWED_ORIGINS", nil),

		ServiceName:     envutil.String("OTEL_SERVICE_NAME", "coursemarket-shell"),
		Environment:     envutil.String("ENVIRONMENT", "development"),
		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),

		GoogleClientID: envutil.String("GOOGLE_CLIENT_ID", ""),
		FacebookAppID:  envutil.String("FACEBOOK_APP_ID", ""),
		ChatGreeting:   envutil.String("CHAT_GREETING", ""),

		PaymePopupWidth:  envutil.Int("PAYME_POPUP_WIDTH", 450),
		PaymePopupHeight: envutil.Int("PAYME_POPUP_HEIGHT", 600),
	}

	if path := envutil.String("COURSEMARKET_CONFIG", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Config overlay applied", "path", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// overlay replaces the fields present in the YAML file and leaves the rest.
func (c *Config) overlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.SessionBackend {
	case SessionSQLite:
		if strings.TrimSpace(c.SessionSQLitePath) == "" {
			return fmt.Errorf("SESSION_SQLITE_PATH is required for the sqlite session backend")
		}
	case SessionRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	case SessionMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.RealtimeBus && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("REDIS_ADDR is required when REALTIME_BUS is on")
	}
	return nil
}
