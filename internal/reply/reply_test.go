package reply

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewProviders(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = New(ctx, Config{Provider: "openai"})
	assert.ErrorContains(t, err, "unknown reply provider")

	_, err = New(ctx, Config{Provider: "ark", Model: "doubao"})
	assert.ErrorContains(t, err, "ark api key is required")

	_, err = New(ctx, Config{Provider: "ark", ArkAPIKey: "key"})
	assert.ErrorContains(t, err, "ark model is required")

	_, err = New(ctx, Config{Provider: " Gemini "})
	assert.ErrorContains(t, err, "gemini api key is required")
}

type deadlineProbe struct {
	deadline time.Time
	ok       bool
}

func (p *deadlineProbe) Generate(ctx context.Context, _, _ string) (string, error) {
	p.deadline, p.ok = ctx.Deadline()
	return "ok", nil
}

func TestWithTimeoutSetsDeadline(t *testing.T) {
	probe := &deadlineProbe{}
	start := time.Now()

	out, err := WithTimeout(probe, 0).Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	require.True(t, probe.ok)
	assert.WithinDuration(t, start.Add(defaultTimeout), probe.deadline, time.Second)
}

type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func TestChainGeneratorRendersPrompt(t *testing.T) {
	chat := &fakeChatModel{reply: "  Try searching Fitness brands.  "}
	gen, err := NewChainGenerator(context.Background(), chat)
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "You match brands.", "  any ideas?  ")
	require.NoError(t, err)
	assert.Equal(t, "Try searching Fitness brands.", out)

	require.Len(t, chat.received, 2)
	assert.Equal(t, schema.System, chat.received[0].Role)
	assert.Equal(t, "You match brands.", chat.received[0].Content)
	assert.Equal(t, schema.User, chat.received[1].Role)
	assert.Equal(t, "any ideas?", chat.received[1].Content)
}

func TestChainGeneratorWrapsFailures(t *testing.T) {
	gen, err := NewChainGenerator(context.Background(), &fakeChatModel{err: errors.New("quota")})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "sys", "hello there")
	assert.ErrorIs(t, err, ErrUpstreamGeneration)

	gen, err = NewChainGenerator(context.Background(), &fakeChatModel{reply: "   "})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "sys", "hello there")
	assert.ErrorIs(t, err, ErrUpstreamGeneration)

	_, err = NewChainGenerator(context.Background(), nil)
	assert.Error(t, err)
}

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	return f.resp, f.err
}

func TestGeminiGenerate(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "first"}, {Text: "  "}}}},
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}}
	gen := newGemini(models, "")

	out, err := gen.Generate(context.Background(), "be brief", "hello")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", out)
	assert.Equal(t, defaultGeminiModel, models.model)
	require.NotNil(t, models.config)
	assert.Equal(t, "be brief", models.config.SystemInstruction.Parts[0].Text)
}

func TestGeminiGenerateErrors(t *testing.T) {
	gen := newGemini(&fakeModels{err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}}, "gemini-pro")
	_, err := gen.Generate(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrUpstreamGeneration)
	assert.Equal(t, "gemini-pro", gen.Model())

	gen = newGemini(&fakeModels{resp: &genai.GenerateContentResponse{}}, "")
	_, err = gen.Generate(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrUpstreamGeneration)

	_, err = gen.Generate(context.Background(), "", "   ")
	assert.ErrorIs(t, err, ErrUpstreamGeneration)
}
