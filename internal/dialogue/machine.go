// Package dialogue drives the slot-filling conversation: the pure state
// machine, the per-identity session store and the orchestrator that routes
// each utterance.
package dialogue

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/extract"
	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/match"
	"github.com/ashureev/collabmatch/internal/metrics"
)

// OutcomeKind classifies the result of one transition.
type OutcomeKind int

const (
	// OutcomeGreeting: the session was cleared and the welcome is due.
	OutcomeGreeting OutcomeKind = iota
	// OutcomePrompt: a slot was filled (or an empty answer ignored) and the
	// next question is due.
	OutcomePrompt
	// OutcomeUnrecognized: the user-type answer was neither brand nor influencer.
	OutcomeUnrecognized
	// OutcomeInvalid: a numeric answer was rejected; Err holds a *ValidationError.
	OutcomeInvalid
	// OutcomeMatch: the last slot was filled; Criteria is ready to run.
	OutcomeMatch
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeGreeting:
		return "greeting"
	case OutcomePrompt:
		return "prompt"
	case OutcomeUnrecognized:
		return "unrecognized"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Outcome describes what a transition decided.
type Outcome struct {
	Kind     OutcomeKind
	Next     domain.State
	Criteria domain.MatchCriteria
	Err      error
}

// Transition computes the next session for one utterance. It never mutates
// its input and performs no I/O.
func Transition(s domain.ConversationSession, utterance string) (domain.ConversationSession, Outcome) {
	if extract.IsGreeting(utterance) {
		return domain.ConversationSession{}, Outcome{Kind: OutcomeGreeting, Next: domain.StateAwaitingUserType}
	}

	next := s.Clone()
	text := strings.TrimSpace(utterance)
	state := s.State()

	switch state {
	case domain.StateAwaitingUserType:
		ut, ok := domain.ParseUserType(extract.Normalize(utterance))
		if !ok {
			return s, Outcome{Kind: OutcomeUnrecognized, Next: state}
		}
		next.UserType = ut

	case domain.StateAwaitingNiche:
		if text == "" {
			return s, Outcome{Kind: OutcomePrompt, Next: state}
		}
		next.Niche = &text

	case domain.StateAwaitingPlatform:
		if text == "" {
			return s, Outcome{Kind: OutcomePrompt, Next: state}
		}
		next.Platform = &text

	case domain.StateAwaitingBudget:
		n, err := parseAmount(state, text, match.MaxBudget)
		if err != nil {
			return s, Outcome{Kind: OutcomeInvalid, Next: state, Err: err}
		}
		return domain.ConversationSession{}, Outcome{
			Kind: OutcomeMatch,
			Next: domain.StateAwaitingUserType,
			Criteria: domain.MatchCriteria{
				Direction: domain.BrandSeekingInfluencers,
				Niche:     *next.Niche,
				Platform:  *next.Platform,
				Budget:    n,
			},
		}

	case domain.StateAwaitingFollowers:
		n, err := parseAmount(state, text, math.MaxInt64)
		if err != nil {
			return s, Outcome{Kind: OutcomeInvalid, Next: state, Err: err}
		}
		return domain.ConversationSession{}, Outcome{
			Kind: OutcomeMatch,
			Next: domain.StateAwaitingUserType,
			Criteria: domain.MatchCriteria{
				Direction: domain.InfluencerSeekingBrands,
				Niche:     *next.Niche,
				Followers: n,
			},
		}
	}

	return next, Outcome{Kind: OutcomePrompt, Next: next.State()}
}

func parseAmount(slot domain.State, text string, max int64) (int64, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 || n > max {
		return 0, &ValidationError{Slot: slot, Input: text, Hint: hints[slot]}
	}
	return n, nil
}

// Matcher is the part of the matching engine the dialogue needs.
type Matcher interface {
	FindMatches(ctx context.Context, c domain.MatchCriteria) (match.Result, error)
	LookupInfluencer(ctx context.Context, name string) (*domain.Influencer, error)
}

// Turn is the result of Machine.Step.
type Turn struct {
	Session domain.ConversationSession
	Reply   string
	Outcome Outcome
}

// Machine runs transitions and, when a session completes, the match.
type Machine struct {
	matcher Matcher
	log     *zap.Logger
}

// NewMachine creates a machine over the given matcher.
func NewMachine(matcher Matcher, log *zap.Logger) *Machine {
	return &Machine{matcher: matcher, log: logger.OrNop(log)}
}

// Step applies one utterance. A completed session is always returned empty,
// even when the match itself fails.
func (m *Machine) Step(ctx context.Context, s domain.ConversationSession, utterance string) Turn {
	next, out := Transition(s, utterance)
	turn := Turn{Session: next, Outcome: out}

	switch out.Kind {
	case OutcomeGreeting:
		turn.Reply = ReplyWelcome
	case OutcomePrompt:
		turn.Reply = Prompt(out.Next)
	case OutcomeUnrecognized:
		turn.Reply = ReplyHelp
	case OutcomeInvalid:
		var verr *ValidationError
		if errors.As(out.Err, &verr) {
			metrics.ValidationFailures.WithLabelValues(string(verr.Slot)).Inc()
			turn.Reply = verr.Hint
		} else {
			turn.Reply = Prompt(out.Next)
		}
	case OutcomeMatch:
		turn.Reply = m.runMatch(ctx, out.Criteria)
	}
	return turn
}

func (m *Machine) runMatch(ctx context.Context, c domain.MatchCriteria) string {
	direction := string(c.Direction)
	start := time.Now()
	res, err := m.matcher.FindMatches(ctx, c)
	metrics.MatchDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.MatchRuns.WithLabelValues(direction, "error").Inc()
		m.log.Error("match failed", zap.String("direction", direction), zap.Error(err))
		return ReplyMatchFailed
	}

	outcome := "matched"
	if res.Empty() {
		outcome = "empty"
	}
	metrics.MatchRuns.WithLabelValues(direction, outcome).Inc()
	m.log.Debug("match completed",
		zap.String("direction", direction),
		zap.Int("influencers", len(res.Influencers)),
		zap.Int("brands", len(res.Brands)))
	return FormatMatches(res)
}
