// Package reply wraps the large-language-model providers that answer
// free-form chat messages.
package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUpstreamGeneration wraps every provider failure. Callers map it to a
	// fixed fallback reply.
	ErrUpstreamGeneration = errors.New("upstream reply generation failed")

	// ErrDisabled is returned by New when no provider is configured.
	ErrDisabled = errors.New("reply generator disabled")
)

// Generator produces a natural-language reply for a system prompt and a
// user message.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

const (
	ProviderArk    = "ark"
	ProviderGemini = "gemini"

	defaultTimeout = 15 * time.Second
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	Timeout  time.Duration

	ArkAPIKey  string
	ArkBaseURL string
	ArkRegion  string

	GeminiAPIKey string
}

// New builds the configured provider wrapped with the request timeout.
func New(ctx context.Context, cfg Config) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, ErrDisabled
	case ProviderArk:
		gen, err = NewArk(ctx, cfg)
	case ProviderGemini:
		gen, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown reply provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(gen, cfg.Timeout), nil
}

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every Generate call. A non-positive timeout uses the
// default of 15 seconds.
func WithTimeout(g Generator, timeout time.Duration) Generator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &timeoutGenerator{next: g, timeout: timeout}
}

func (t *timeoutGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Generate(ctx, systemPrompt, userMessage)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamGeneration, op, err)
}
