package dialogue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/extract"
	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/match"
	"github.com/ashureev/collabmatch/internal/metrics"
	"github.com/ashureev/collabmatch/internal/reply"
)

// Routes a turn can take, used as log field and metric label.
const (
	RouteGreeting    = "greeting"
	RouteContact     = "contact"
	RouteLookup      = "lookup"
	RouteNegotiation = "negotiation"
	RouteMachine     = "machine"
	RouteGenerator   = "generator"
	RouteHelp        = "help"
)

// Transcript receives every user and assistant message.
type Transcript interface {
	Record(sessionID, role, content string)
}

// Roles passed to Transcript.Record.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Orchestrator turns one utterance for one identity into one reply.
type Orchestrator struct {
	extractor  extract.Extractor
	matcher    Matcher
	machine    *Machine
	sessions   *SessionStore
	generator  reply.Generator
	transcript Transcript
	log        *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGenerator enables free-form replies for messages the bot does not
// recognize.
func WithGenerator(g reply.Generator) Option {
	return func(o *Orchestrator) { o.generator = g }
}

// WithExtractor replaces the default keyword detectors.
func WithExtractor(e extract.Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithTranscript records every turn.
func WithTranscript(t Transcript) Option {
	return func(o *Orchestrator) { o.transcript = t }
}

// NewOrchestrator wires the dialogue components.
func NewOrchestrator(matcher Matcher, sessions *SessionStore, log *zap.Logger, opts ...Option) *Orchestrator {
	log = logger.OrNop(log)
	o := &Orchestrator{
		extractor: extract.Keywords{},
		matcher:   matcher,
		machine:   NewMachine(matcher, log),
		sessions:  sessions,
		log:       log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleMessage answers one utterance. It always returns a reply; failures
// are logged and answered with fixed apologies.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, utterance string) string {
	var (
		answer string
		route  string
	)
	o.sessions.With(sessionID, func(s *domain.ConversationSession) {
		answer, route = o.route(ctx, s, utterance)
	})

	metrics.MessagesHandled.WithLabelValues(route).Inc()
	o.log.Debug("message handled",
		zap.String(logger.FieldSessionID, sessionID),
		zap.String(logger.FieldRoute, route),
		logger.Utterance(utterance))

	if o.transcript != nil {
		o.transcript.Record(sessionID, RoleUser, utterance)
		o.transcript.Record(sessionID, RoleAssistant, answer)
	}
	return answer
}

func (o *Orchestrator) route(ctx context.Context, s *domain.ConversationSession, utterance string) (string, string) {
	if o.extractor.IsGreeting(utterance) {
		s.Reset()
		return ReplyWelcome, RouteGreeting
	}

	if q := o.extractor.DetectContact(utterance); q.Found {
		return o.contact(ctx, q.Name), RouteContact
	}

	if q := o.extractor.DetectLookup(utterance); q.Found {
		return o.lookup(ctx, q.Name), RouteLookup
	}

	if s.IsEmpty() {
		if n := o.extractor.DetectNegotiation(utterance); n.Kind != extract.NegotiationNone {
			return negotiate(n), RouteNegotiation
		}
	}

	wasEmpty := s.IsEmpty()
	turn := o.machine.Step(ctx, *s, utterance)
	if turn.Outcome.Kind == OutcomeUnrecognized && wasEmpty && o.generator != nil {
		return o.generate(ctx, utterance), RouteGenerator
	}
	*s = turn.Session
	if turn.Outcome.Kind == OutcomeUnrecognized {
		return turn.Reply, RouteHelp
	}
	return turn.Reply, RouteMachine
}

func (o *Orchestrator) lookup(ctx context.Context, name string) string {
	inf, err := o.matcher.LookupInfluencer(ctx, name)
	switch {
	case errors.Is(err, match.ErrNotFound):
		return FormatNotFound(name)
	case err != nil:
		o.log.Error("influencer lookup failed", zap.String("name", name), zap.Error(err))
		return ReplyLookupFailed
	}
	return FormatProfile(inf)
}

func (o *Orchestrator) contact(ctx context.Context, name string) string {
	inf, err := o.matcher.LookupInfluencer(ctx, name)
	switch {
	case errors.Is(err, match.ErrNotFound):
		return FormatNotFound(name)
	case err != nil:
		o.log.Error("influencer contact lookup failed", zap.String("name", name), zap.Error(err))
		return ReplyLookupFailed
	}
	return FormatContact(inf)
}

func negotiate(n extract.Negotiation) string {
	if n.Kind == extract.NegotiationAccept {
		return ReplyDealAccepted
	}
	if n.Amount == nil {
		return ReplyCounterHelp
	}
	return FormatCounter(*n.Amount)
}

func (o *Orchestrator) generate(ctx context.Context, utterance string) string {
	niche, _ := o.extractor.DetectNiche(utterance)
	out, err := o.generator.Generate(ctx, SystemPrompt(niche), utterance)
	if err != nil {
		metrics.GenerationFailures.Inc()
		o.log.Warn("reply generation failed, using fallback",
			zap.Bool("upstream", errors.Is(err, reply.ErrUpstreamGeneration)),
			zap.Error(err))
		return ReplyFallback
	}
	return out
}

const basePrompt = "You are the assistant of a service that matches brands with influencers. " +
	"Answer in at most three sentences. To find matches the user types 'brand' or 'influencer'; " +
	"to reach an influencer the user types 'contact [name]'."

// SystemPrompt builds the instruction sent with a free-form message. A
// detected niche is mentioned so the model can tailor its answer.
func SystemPrompt(niche string) string {
	if niche == "" {
		return basePrompt
	}
	return fmt.Sprintf("%s The user seems interested in the %s niche.", basePrompt, niche)
}
