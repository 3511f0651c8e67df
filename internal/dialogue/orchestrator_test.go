package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/reply"
)

type fakeGenerator struct {
	out    string
	err    error
	calls  int
	system string
}

func (g *fakeGenerator) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	g.calls++
	g.system = systemPrompt
	return g.out, g.err
}

type memoryTranscript struct {
	mu      sync.Mutex
	entries []string
}

func (m *memoryTranscript) Record(sessionID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, sessionID+"|"+role+"|"+content)
}

func alexMatcher() *stubMatcher {
	return &stubMatcher{profiles: map[string]*domain.Influencer{
		"Alex": {ID: 1, Name: "Alex", Niche: "Fitness", Followers: 9000, Platform: "Instagram"},
	}}
}

func TestHandleMessageLookup(t *testing.T) {
	o := NewOrchestrator(alexMatcher(), NewSessionStore(), zap.NewNop())
	ctx := context.Background()

	got := o.HandleMessage(ctx, "u:s", "how many followers does Alex have")
	assert.Contains(t, got, "9000")
	assert.Contains(t, got, "Instagram")

	got = o.HandleMessage(ctx, "u:s", "how many followers does Sam have")
	assert.Equal(t, FormatNotFound("Sam"), got)
}

func TestHandleMessageLookupLeavesSessionAlone(t *testing.T) {
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop())
	ctx := context.Background()

	o.HandleMessage(ctx, "id", "brand")
	o.HandleMessage(ctx, "id", "what are the stats of Alex")

	s, ok := sessions.Get("id")
	require.True(t, ok)
	assert.Equal(t, domain.StateAwaitingNiche, s.State())
}

func TestHandleMessageLookupNonASCIIName(t *testing.T) {
	m := alexMatcher()
	m.profiles["Zoë"] = &domain.Influencer{ID: 2, Name: "Zoë", Niche: "Économie", Followers: 9000, Platform: "Instagram"}
	o := NewOrchestrator(m, NewSessionStore(), zap.NewNop())

	got := o.HandleMessage(context.Background(), "id", "how many followers does Zoë have")
	assert.Equal(t, "Zoë has 9000 followers on Instagram (Économie niche).", got)
}

func TestHandleMessageNumericAnswerWithKeywordIsNotALookup(t *testing.T) {
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop())
	ctx := context.Background()

	o.HandleMessage(ctx, "id", "influencer")
	o.HandleMessage(ctx, "id", "Fitness")

	got := o.HandleMessage(ctx, "id", "5000 followers")
	assert.Equal(t, hints[domain.StateAwaitingFollowers], got)

	s, ok := sessions.Get("id")
	require.True(t, ok)
	assert.Equal(t, domain.StateAwaitingFollowers, s.State())
}

func TestHandleMessageLookupError(t *testing.T) {
	o := NewOrchestrator(&stubMatcher{err: errors.New("database is locked")}, NewSessionStore(), zap.NewNop())
	got := o.HandleMessage(context.Background(), "id", "followers of Alex")
	assert.Equal(t, ReplyLookupFailed, got)
}

func TestHandleMessageContactAndNegotiation(t *testing.T) {
	o := NewOrchestrator(alexMatcher(), NewSessionStore(), zap.NewNop())
	ctx := context.Background()

	assert.Equal(t,
		"Connecting you with Alex. Proposed deal: $500 for a post. Reply 'accept' or 'counter [amount]' to proceed.",
		o.HandleMessage(ctx, "id", "contact Alex"))
	assert.Equal(t, FormatNotFound("Nobody"), o.HandleMessage(ctx, "id", "contact Nobody"))
	assert.Equal(t, ReplyDealAccepted, o.HandleMessage(ctx, "id", "accept"))
	assert.Equal(t, "Countered with $600. Waiting for response from the other party.", o.HandleMessage(ctx, "id", "counter 600"))
	assert.Equal(t, ReplyCounterHelp, o.HandleMessage(ctx, "id", "counter"))
}

func TestHandleMessageNegotiationOnlyWithEmptySession(t *testing.T) {
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop())
	ctx := context.Background()

	o.HandleMessage(ctx, "id", "brand")
	got := o.HandleMessage(ctx, "id", "accept")
	assert.Equal(t, Prompt(domain.StateAwaitingPlatform), got)

	s, _ := sessions.Get("id")
	assert.Equal(t, "accept", *s.Niche)
}

func TestHandleMessageFullBrandConversation(t *testing.T) {
	engine, repo := newSQLiteEngine(t)
	ctx := context.Background()
	_, err := repo.InsertInfluencer(ctx, "Alex", "Fitness", 9000, "Instagram")
	require.NoError(t, err)

	sessions := NewSessionStore()
	o := NewOrchestrator(engine, sessions, zap.NewNop())

	assert.Equal(t, ReplyWelcome, o.HandleMessage(ctx, "id", "hi"))
	assert.Equal(t, Prompt(domain.StateAwaitingNiche), o.HandleMessage(ctx, "id", "Brand"))
	assert.Equal(t, Prompt(domain.StateAwaitingPlatform), o.HandleMessage(ctx, "id", "Fitness"))
	assert.Equal(t, Prompt(domain.StateAwaitingBudget), o.HandleMessage(ctx, "id", "Instagram"))
	assert.Equal(t, hints[domain.StateAwaitingBudget], o.HandleMessage(ctx, "id", "a thousand"))

	got := o.HandleMessage(ctx, "id", "1000")
	assert.Contains(t, got, "Alex (9000 followers on Instagram)")

	s, ok := sessions.Get("id")
	require.True(t, ok)
	assert.True(t, s.IsEmpty())
}

func TestHandleMessageGreetingResetsMidConversation(t *testing.T) {
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop())
	ctx := context.Background()

	o.HandleMessage(ctx, "id", "influencer")
	o.HandleMessage(ctx, "id", "Tech")
	assert.Equal(t, ReplyWelcome, o.HandleMessage(ctx, "id", "Good morning"))

	s, _ := sessions.Get("id")
	assert.True(t, s.IsEmpty())
}

func TestHandleMessageUnrecognizedWithoutGenerator(t *testing.T) {
	o := NewOrchestrator(alexMatcher(), NewSessionStore(), zap.NewNop())
	assert.Equal(t, ReplyHelp, o.HandleMessage(context.Background(), "id", "what can you do?"))
}

func TestHandleMessageGenerator(t *testing.T) {
	gen := &fakeGenerator{out: "I can help you find fitness partners."}
	o := NewOrchestrator(alexMatcher(), NewSessionStore(), zap.NewNop(), WithGenerator(gen))

	got := o.HandleMessage(context.Background(), "id", "any tips for fitness brands?")
	assert.Equal(t, "I can help you find fitness partners.", got)
	assert.Equal(t, 1, gen.calls)
	assert.Contains(t, gen.system, "Fitness niche")
}

func TestHandleMessageGeneratorOnlyForEmptySession(t *testing.T) {
	gen := &fakeGenerator{out: "free text"}
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop(), WithGenerator(gen))
	ctx := context.Background()

	o.HandleMessage(ctx, "id", "brand")
	o.HandleMessage(ctx, "id", "Tech")
	o.HandleMessage(ctx, "id", "YouTube")
	got := o.HandleMessage(ctx, "id", "not sure")
	assert.Equal(t, hints[domain.StateAwaitingBudget], got)
	assert.Zero(t, gen.calls)
}

func TestHandleMessageGeneratorFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: quota exceeded", reply.ErrUpstreamGeneration)}
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop(), WithGenerator(gen))

	got := o.HandleMessage(context.Background(), "id", "tell me a joke")
	assert.Equal(t, ReplyFallback, got)
	assert.NotContains(t, got, "quota")

	s, _ := sessions.Get("id")
	assert.True(t, s.IsEmpty())
}

func TestHandleMessageTranscript(t *testing.T) {
	tr := &memoryTranscript{}
	o := NewOrchestrator(alexMatcher(), NewSessionStore(), zap.NewNop(), WithTranscript(tr))

	o.HandleMessage(context.Background(), "id", "hello")
	assert.Equal(t, []string{"id|user|hello", "id|assistant|" + ReplyWelcome}, tr.entries)
}

func TestHandleMessageConcurrentIdentities(t *testing.T) {
	sessions := NewSessionStore()
	o := NewOrchestrator(alexMatcher(), sessions, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			o.HandleMessage(ctx, id, "influencer")
			o.HandleMessage(ctx, id, "Beauty")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, sessions.Count())
	for i := 0; i < 20; i++ {
		s, ok := sessions.Get(fmt.Sprintf("user-%d", i))
		require.True(t, ok)
		assert.Equal(t, domain.StateAwaitingFollowers, s.State())
	}
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, basePrompt, SystemPrompt(""))
	assert.Contains(t, SystemPrompt("Tech"), "Tech niche")
}
