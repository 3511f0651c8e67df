package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range defaults {
		t.Setenv(key, "")
	}
}

func TestFromViperDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, "./data/collabmatch.db", cfg.DBPath)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 15*time.Second, cfg.Reply.Timeout)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Transcript.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromViperEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("REPLY_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("LOG_JSON", "true")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "gemini", cfg.Reply.Provider)
	assert.Equal(t, "secret", cfg.Reply.GeminiAPIKey)
	assert.True(t, cfg.LogJSON)
}

func TestFromViperFileValues(t *testing.T) {
	clearEnv(t)
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("DB_PATH: /var/lib/collabmatch.db\nRATE_LIMIT_REQUESTS: 5\n")))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/collabmatch.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := func() *Config {
		cfg, err := FromViper(viper.New())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port", mutate: func(c *Config) { c.Port = "" }, want: "PORT"},
		{name: "db", mutate: func(c *Config) { c.DBPath = "" }, want: "DB_PATH"},
		{name: "ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, want: "SESSION_TTL"},
		{name: "rate", mutate: func(c *Config) { c.RateLimit.Requests = 0 }, want: "RATE_LIMIT_REQUESTS"},
		{name: "window", mutate: func(c *Config) { c.RateLimit.Window = 0 }, want: "RATE_LIMIT_WINDOW"},
		{name: "provider", mutate: func(c *Config) { c.Reply.Provider = "openai" }, want: "REPLY_PROVIDER"},
		{name: "transcript", mutate: func(c *Config) { c.Transcript.Enabled = true; c.Transcript.Dir = "" }, want: "TRANSCRIPT_DIR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{FrontendURL: "http://localhost:5173"}).IsDevelopment())
	assert.False(t, (&Config{FrontendURL: "https://collabmatch.example"}).IsDevelopment())
}
