package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAPIURL is the deployed backend
const DefaultAPIURL = "https://time-bot-backend-2.onrender.com"

// Config holds all configuration values
type Config struct {
	APIURL string `mapstructure:"api_url"`
	Locale string `mapstructure:"locale"`
	// Timezone is an IANA name; empty means local time
	Timezone string `mapstructure:"timezone"`

	Storage struct {
		Backend string `mapstructure:"backend"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"storage"`

	Cache struct {
		Dir string        `mapstructure:"dir"`
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`

	HTTP struct {
		Timeout   time.Duration `mapstructure:"timeout"`
		RateLimit float64       `mapstructure:"rate_limit"`
		Burst     int           `mapstructure:"burst"`
	} `mapstructure:"http"`

	Chat struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"chat"`

	Payment struct {
		Delay time.Duration `mapstructure:"delay"`
	} `mapstructure:"payment"`
}

// HomeDir returns the directory holding client state
func HomeDir() string {
	if dir := os.Getenv("TIMEBOT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timebot"
	}
	return filepath.Join(home, ".timebot")
}

// NewViper returns a viper instance with defaults, env binding and the optional config file
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	base := HomeDir()

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("locale", "en-IN")
	v.SetDefault("timezone", "")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", filepath.Join(base, "state.db"))
	v.SetDefault("cache.dir", filepath.Join(base, "cache"))
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.rate_limit", 5.0)
	v.SetDefault("http.burst", 5)
	v.SetDefault("chat.model", "claude")
	v.SetDefault("payment.delay", 2*time.Second)

	v.SetEnvPrefix("TIMEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(base)
		v.AddConfigPath(".")
	}
	return v
}

// LoadConfig reads .env, the config file and environment into a Config
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		LogDebug("No .env file loaded: %v", err)
	}

	v := NewViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		LogDebug("No config file found, using defaults and environment")
	} else {
		LogDebug("Using config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration values that would otherwise fail late
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("config: api_url must not be empty")
	}
	switch c.Chat.Model {
	case "claude", "openai":
	default:
		return fmt.Errorf("config: unsupported chat.model %q (supported: claude, openai)", c.Chat.Model)
	}
	if c.Payment.Delay < 0 {
		return errors.New("config: payment.delay must not be negative")
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		LogWarn("Unknown timezone %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}
