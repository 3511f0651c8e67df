package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const defaultArkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// ChainGenerator runs a compiled prompt → chat model chain.
type ChainGenerator struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
}

// NewArk creates a generator backed by a Volcengine Ark chat model.
func NewArk(ctx context.Context, cfg Config) (*ChainGenerator, error) {
	apiKey := strings.TrimSpace(cfg.ArkAPIKey)
	if apiKey == "" {
		return nil, errors.New("ark api key is required")
	}
	modelName := strings.TrimSpace(cfg.Model)
	if modelName == "" {
		return nil, errors.New("ark model is required")
	}
	baseURL := strings.TrimSpace(cfg.ArkBaseURL)
	if baseURL == "" {
		baseURL = defaultArkBaseURL
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: baseURL,
		Region:  cfg.ArkRegion,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}
	return NewChainGenerator(ctx, chatModel)
}

// NewChainGenerator compiles the system/user template in front of any eino
// chat model.
func NewChainGenerator(ctx context.Context, chatModel model.ChatModel) (*ChainGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{message}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}
	return &ChainGenerator{runnable: runnable}, nil
}

// Generate implements Generator.
func (g *ChainGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	msg, err := g.runnable.Invoke(ctx, map[string]any{
		"system":  systemPrompt,
		"message": strings.TrimSpace(userMessage),
	})
	if err != nil {
		return "", upstream("invoke chain", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", upstream("invoke chain", errors.New("empty response"))
	}
	return strings.TrimSpace(msg.Content), nil
}
