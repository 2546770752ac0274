package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/timebot/timebot-cli/testutil"
)

func TestLoadConfig_Defaults(t *testing.T) {
	home := testutil.CreateTempDir(t)
	t.Setenv("TIMEBOT_HOME", home)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(home, "state.db") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", cfg.Cache.TTL)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 30s", cfg.HTTP.Timeout)
	}
	if cfg.Chat.Model != "claude" {
		t.Errorf("Chat.Model = %q, want claude", cfg.Chat.Model)
	}
	if cfg.Payment.Delay != 2*time.Second {
		t.Errorf("Payment.Delay = %v, want 2s", cfg.Payment.Delay)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	home := testutil.CreateTempDir(t)
	t.Setenv("TIMEBOT_HOME", home)

	configPath := filepath.Join(home, "custom.yaml")
	content := `
api_url: http://localhost:5000
storage:
  backend: bolt
cache:
  ttl: 1h
chat:
  model: openai
payment:
  delay: 10ms
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TIMEBOT_API_URL", "http://127.0.0.1:9000")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9000" {
		t.Errorf("APIURL = %q, env must override file", cfg.APIURL)
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Storage.Backend = %q, want bolt", cfg.Storage.Backend)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Chat.Model != "openai" {
		t.Errorf("Chat.Model = %q, want openai", cfg.Chat.Model)
	}
	if cfg.Payment.Delay != 10*time.Millisecond {
		t.Errorf("Payment.Delay = %v, want 10ms", cfg.Payment.Delay)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("TIMEBOT_HOME", testutil.CreateTempDir(t))
	if _, err := LoadConfig(filepath.Join(testutil.CreateTempDir(t), "absent.yaml")); err == nil {
		t.Error("LoadConfig() with missing explicit file should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.APIURL = DefaultAPIURL
		c.Chat.Model = "claude"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty url", mutate: func(c *Config) { c.APIURL = " " }, wantErr: "api_url"},
		{name: "bad model", mutate: func(c *Config) { c.Chat.Model = "gemini" }, wantErr: "chat.model"},
		{name: "negative delay", mutate: func(c *Config) { c.Payment.Delay = -time.Second }, wantErr: "payment.delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Location(t *testing.T) {
	c := Config{Timezone: "Asia/Kolkata"}
	if loc := c.Location(); loc.String() != "Asia/Kolkata" {
		t.Errorf("Location() = %v", loc)
	}
	c.Timezone = "Mars/Olympus"
	if loc := c.Location(); loc != time.Local {
		t.Errorf("Location() for unknown zone = %v, want Local", loc)
	}
	c.Timezone = ""
	if loc := c.Location(); loc != time.Local {
		t.Errorf("Location() for empty zone = %v, want Local", loc)
	}
}
