// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/ashureev/collabmatch/internal/domain"
)

// ErrNotFound is returned when a point lookup matches no row.
var ErrNotFound = errors.New("not found")

// Fold maps s to its case-folding key. Two strings have the same key
// exactly when strings.EqualFold reports them equal.
func Fold(s string) string {
	return strings.Map(func(r rune) rune {
		lowest := r
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			if f < lowest {
				lowest = f
			}
		}
		return lowest
	}, s)
}

// Int64Range is an inclusive [Min, Max] bound.
type Int64Range struct {
	Min int64
	Max int64
}

// InfluencerFilter narrows ScanInfluencers. Zero values mean "any".
type InfluencerFilter struct {
	Niche     string
	Platform  string
	Followers *Int64Range
}

// BrandFilter narrows ScanBrands. Zero values mean "any".
type BrandFilter struct {
	Niche     string
	MinBudget *int64
}

// Repository defines the interface for persisting influencers and brands.
type Repository interface {
	// InsertInfluencer stores a new influencer and returns its ID.
	InsertInfluencer(ctx context.Context, name, niche string, followers int64, platform string) (int64, error)

	// InsertBrand stores a new brand and returns its ID.
	InsertBrand(ctx context.Context, name, niche string, budget int64) (int64, error)

	// GetInfluencerByName looks up an influencer by case-insensitive exact name.
	// Returns ErrNotFound when no influencer has that name.
	GetInfluencerByName(ctx context.Context, name string) (*domain.Influencer, error)

	// ScanInfluencers returns influencers matching the filter in insertion order.
	ScanInfluencers(ctx context.Context, filter InfluencerFilter) ([]domain.Influencer, error)

	// ScanBrands returns brands matching the filter in insertion order.
	ScanBrands(ctx context.Context, filter BrandFilter) ([]domain.Brand, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
