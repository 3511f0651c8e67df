// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ashureev/collabmatch/internal/reply"
	"github.com/ashureev/collabmatch/internal/transcript"
)

// ConfigName is the optional YAML file read from the working directory.
const ConfigName = "collabmatch"

// Config holds all application configuration.
type Config struct {
	Port        string
	GRPCPort    string
	FrontendURL string
	DBPath      string
	SessionTTL  time.Duration

	LogJSON  bool
	LogDebug bool

	Reply      reply.Config
	RateLimit  RateLimitConfig
	Transcript transcript.Config
}

// RateLimitConfig bounds chat requests per anonymous user.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"GRPC_PORT":             "9090",
	"FRONTEND_URL":          "",
	"DB_PATH":               "./data/collabmatch.db",
	"SESSION_TTL":           "30m",
	"LOG_JSON":              false,
	"LOG_DEBUG":             false,
	"REPLY_PROVIDER":        "",
	"REPLY_MODEL":           "",
	"REPLY_TIMEOUT":         "15s",
	"ARK_API_KEY":           "",
	"ARK_BASE_URL":          "",
	"ARK_REGION":            "",
	"GEMINI_API_KEY":        "",
	"RATE_LIMIT_REQUESTS":   30,
	"RATE_LIMIT_WINDOW":     "1m",
	"TRANSCRIPT_ENABLED":    false,
	"TRANSCRIPT_DIR":        "./data/transcripts",
	"TRANSCRIPT_QUEUE_SIZE": 256,
}

// Load reads configuration from environment variables, falling back to
// collabmatch.yaml in the working directory and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an existing viper instance. Environment
// variables override file values.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:        v.GetString("PORT"),
		GRPCPort:    v.GetString("GRPC_PORT"),
		FrontendURL: v.GetString("FRONTEND_URL"),
		DBPath:      v.GetString("DB_PATH"),
		SessionTTL:  v.GetDuration("SESSION_TTL"),
		LogJSON:     v.GetBool("LOG_JSON"),
		LogDebug:    v.GetBool("LOG_DEBUG"),
		Reply: reply.Config{
			Provider:     v.GetString("REPLY_PROVIDER"),
			Model:        v.GetString("REPLY_MODEL"),
			Timeout:      v.GetDuration("REPLY_TIMEOUT"),
			ArkAPIKey:    v.GetString("ARK_API_KEY"),
			ArkBaseURL:   v.GetString("ARK_BASE_URL"),
			ArkRegion:    v.GetString("ARK_REGION"),
			GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Transcript: transcript.Config{
			Enabled:   v.GetBool("TRANSCRIPT_ENABLED"),
			Dir:       v.GetString("TRANSCRIPT_DIR"),
			QueueSize: v.GetInt("TRANSCRIPT_QUEUE_SIZE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	switch strings.ToLower(c.Reply.Provider) {
	case "", reply.ProviderArk, reply.ProviderGemini:
	default:
		return fmt.Errorf("REPLY_PROVIDER must be empty, %q or %q", reply.ProviderArk, reply.ProviderGemini)
	}
	if c.Transcript.Enabled && c.Transcript.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty when transcripts are enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
