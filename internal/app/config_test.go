package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("COURSEMARKET_CONFIG", "")
	t.Setenv("SESSION_BACKEND", "")
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api" || cfg.APITimeout != 30*time.Second {
		t.Fatalf("api=%q timeout=%s", cfg.APIBaseURL, cfg.APITimeout)
	}
	if cfg.SessionBackend != SessionSQLite || cfg.SessionSQLitePath != "coursemarket.db" {
		t.Fatalf("session=%q path=%q", cfg.SessionBackend, cfg.SessionSQLitePath)
	}
	if cfg.ShellAddr != ":5180" || cfg.PaymePopupWidth != 450 || cfg.PaymePopupHeight != 600 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("COURSEMARKET_CONFIG", "")
	t.Setenv("API_BASE_URL", "https://api.example.com/api")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("SESSION_BACKEND", "Memory")
	t.Setenv("SHELL_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com/api" || cfg.APITimeout != 5*time.Second {
		t.Fatalf("api=%q timeout=%s", cfg.APIBaseURL, cfg.APITimeout)
	}
	if cfg.SessionBackend != SessionMemory {
		t.Fatalf("backend=%q", cfg.SessionBackend)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.yaml")
	body := "api_base_url: https://staging.example.com/api\napi_timeout: 12s\nsession_backend: memory\nchat_greeting: Salom!\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("COURSEMARKET_CONFIG", path)
	t.Setenv("SHELL_ADDR", ":9999")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.APIBaseURL != "https://staging.example.com/api" || cfg.APITimeout != 12*time.Second {
		t.Fatalf("api=%q timeout=%s", cfg.APIBaseURL, cfg.APITimeout)
	}
	if cfg.SessionBackend != SessionMemory || cfg.ChatGreeting != "Salom!" {
		t.Fatalf("cfg=%+v", cfg)
	}
	// Keys absent from the file keep their env values.
	if cfg.ShellAddr != ":9999" {
		t.Fatalf("addr=%q", cfg.ShellAddr)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"SESSION_BACKEND": "etcd"}},
		{"redis without addr", map[string]string{"SESSION_BACKEND": "redis", "REDIS_ADDR": ""}},
		{"bus without addr", map[string]string{"SESSION_BACKEND": "memory", "REALTIME_BUS": "true", "REDIS_ADDR": ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("COURSEMARKET_CONFIG", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfigMissingOverlay(t *testing.T) {
	t.Setenv("COURSEMARKET_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := LoadConfig(nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
