// Package match implements the threshold matching between brands and
// influencers.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/collabmatch/internal/domain"
	"github.com/ashureev/collabmatch/internal/store"
)

// A brand's dollar budget buys between FollowerRatioLow and
// FollowerRatioHigh followers per dollar. An influencer expects at least one
// dollar per AffordabilityDivisor followers.
const (
	FollowerRatioLow     = 8
	FollowerRatioHigh    = 12
	AffordabilityDivisor = 100
)

// MaxBudget keeps budget*FollowerRatioHigh inside int64.
const MaxBudget = (1<<63 - 1) / FollowerRatioHigh

// ErrNotFound is returned by LookupInfluencer when no influencer has the name.
var ErrNotFound = errors.New("influencer not found")

// Reader is the read side of store.Repository the engine depends on.
type Reader interface {
	GetInfluencerByName(ctx context.Context, name string) (*domain.Influencer, error)
	ScanInfluencers(ctx context.Context, filter store.InfluencerFilter) ([]domain.Influencer, error)
	ScanBrands(ctx context.Context, filter store.BrandFilter) ([]domain.Brand, error)
}

// Result is the unordered set of entities that passed the threshold.
// Exactly one of Influencers or Brands is populated, depending on Direction.
type Result struct {
	Criteria    domain.MatchCriteria
	Influencers []domain.Influencer
	Brands      []domain.Brand
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return len(r.Influencers) == 0 && len(r.Brands) == 0
}

// Engine runs matches against a repository. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	repo Reader
}

// NewEngine creates a matching engine over the given repository.
func NewEngine(repo Reader) *Engine {
	return &Engine{repo: repo}
}

// FollowerRange returns the inclusive follower range a budget buys.
func FollowerRange(budget int64) store.Int64Range {
	return store.Int64Range{
		Min: budget * FollowerRatioLow,
		Max: budget * FollowerRatioHigh,
	}
}

// MinBudget returns the smallest budget a brand needs to afford an
// influencer with the given follower count.
func MinBudget(followers int64) int64 {
	return followers / AffordabilityDivisor
}

// InfluencerFits is the brand→influencer threshold predicate.
func InfluencerFits(c domain.MatchCriteria, inf domain.Influencer) bool {
	r := FollowerRange(c.Budget)
	return strings.EqualFold(inf.Niche, c.Niche) &&
		strings.EqualFold(inf.Platform, c.Platform) &&
		inf.Followers >= r.Min && inf.Followers <= r.Max
}

// BrandFits is the influencer→brand threshold predicate.
func BrandFits(c domain.MatchCriteria, b domain.Brand) bool {
	return strings.EqualFold(b.Niche, c.Niche) && b.Budget >= MinBudget(c.Followers)
}

// FindMatches returns every entity of the opposite population that passes
// the threshold for the criteria's direction.
func (e *Engine) FindMatches(ctx context.Context, c domain.MatchCriteria) (Result, error) {
	switch c.Direction {
	case domain.BrandSeekingInfluencers:
		return e.findInfluencers(ctx, c)
	case domain.InfluencerSeekingBrands:
		return e.findBrands(ctx, c)
	default:
		return Result{}, fmt.Errorf("unknown match direction %q", c.Direction)
	}
}

func (e *Engine) findInfluencers(ctx context.Context, c domain.MatchCriteria) (Result, error) {
	if c.Budget < 0 || c.Budget > MaxBudget {
		return Result{}, fmt.Errorf("budget %d out of range", c.Budget)
	}
	r := FollowerRange(c.Budget)
	rows, err := e.repo.ScanInfluencers(ctx, store.InfluencerFilter{
		Niche:     c.Niche,
		Platform:  c.Platform,
		Followers: &r,
	})
	if err != nil {
		return Result{}, fmt.Errorf("scan influencers: %w", err)
	}

	out := Result{Criteria: c}
	for _, inf := range rows {
		if InfluencerFits(c, inf) {
			out.Influencers = append(out.Influencers, inf)
		}
	}
	return out, nil
}

func (e *Engine) findBrands(ctx context.Context, c domain.MatchCriteria) (Result, error) {
	if c.Followers < 0 {
		return Result{}, fmt.Errorf("followers %d out of range", c.Followers)
	}
	minBudget := MinBudget(c.Followers)
	rows, err := e.repo.ScanBrands(ctx, store.BrandFilter{
		Niche:     c.Niche,
		MinBudget: &minBudget,
	})
	if err != nil {
		return Result{}, fmt.Errorf("scan brands: %w", err)
	}

	out := Result{Criteria: c}
	for _, b := range rows {
		if BrandFits(c, b) {
			out.Brands = append(out.Brands, b)
		}
	}
	return out, nil
}

// LookupInfluencer performs the direct profile lookup by exact,
// case-insensitive name.
func (e *Engine) LookupInfluencer(ctx context.Context, name string) (*domain.Influencer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	inf, err := e.repo.GetInfluencerByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup influencer %q: %w", name, err)
	}
	return inf, nil
}
