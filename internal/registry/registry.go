// Package registry validates and stores new influencers and brands.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/ashureev/collabmatch/internal/logger"
	"github.com/ashureev/collabmatch/internal/metrics"
	"github.com/ashureev/collabmatch/internal/store"
)

// ErrInvalid wraps every payload validation failure.
var ErrInvalid = errors.New("invalid registration")

const influencerSchema = `{
  "type": "object",
  "required": ["name", "niche", "followers", "platform"],
  "properties": {
    "name":      {"type": "string", "minLength": 1, "maxLength": 100},
    "niche":     {"type": "string", "minLength": 1, "maxLength": 100},
    "followers": {"type": "integer", "minimum": 0},
    "platform":  {"type": "string", "minLength": 1, "maxLength": 100}
  }
}`

const brandSchema = `{
  "type": "object",
  "required": ["name", "niche", "budget"],
  "properties": {
    "name":   {"type": "string", "minLength": 1, "maxLength": 100},
    "niche":  {"type": "string", "minLength": 1, "maxLength": 100},
    "budget": {"type": "integer", "minimum": 0}
  }
}`

var (
	influencerValidator = mustSchema(influencerSchema)
	brandValidator      = mustSchema(brandSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile registration schema: %v", err))
	}
	return s
}

// InfluencerInput is the registration payload for an influencer.
type InfluencerInput struct {
	Name      string `json:"name"`
	Niche     string `json:"niche"`
	Followers int64  `json:"followers"`
	Platform  string `json:"platform"`
}

// BrandInput is the registration payload for a brand.
type BrandInput struct {
	Name   string `json:"name"`
	Niche  string `json:"niche"`
	Budget int64  `json:"budget"`
}

func (in *InfluencerInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Niche = strings.TrimSpace(in.Niche)
	in.Platform = strings.TrimSpace(in.Platform)
}

func (in *BrandInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Niche = strings.TrimSpace(in.Niche)
}

func validate(s *gojsonschema.Schema, doc gojsonschema.JSONLoader) error {
	result, err := s.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// DecodeInfluencer validates a JSON body against the influencer schema.
func DecodeInfluencer(body []byte) (InfluencerInput, error) {
	var in InfluencerInput
	if err := validate(influencerValidator, gojsonschema.NewBytesLoader(body)); err != nil {
		return in, err
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return in, nil
}

// DecodeBrand validates a JSON body against the brand schema.
func DecodeBrand(body []byte) (BrandInput, error) {
	var in BrandInput
	if err := validate(brandValidator, gojsonschema.NewBytesLoader(body)); err != nil {
		return in, err
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return in, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return in, nil
}

// Service registers entities through the repository.
type Service struct {
	repo store.Repository
	log  *zap.Logger
}

// NewService creates a registration service.
func NewService(repo store.Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: logger.OrNop(log)}
}

// RegisterInfluencer validates and stores an influencer.
func (s *Service) RegisterInfluencer(ctx context.Context, in InfluencerInput) (int64, error) {
	in.trim()
	if err := validate(influencerValidator, gojsonschema.NewGoLoader(in)); err != nil {
		return 0, err
	}
	id, err := s.repo.InsertInfluencer(ctx, in.Name, in.Niche, in.Followers, in.Platform)
	if err != nil {
		return 0, fmt.Errorf("register influencer: %w", err)
	}
	metrics.Registrations.WithLabelValues("influencer").Inc()
	s.log.Info("influencer registered", zap.Int64("id", id), zap.String("name", in.Name), zap.String("niche", in.Niche))
	return id, nil
}

// RegisterBrand validates and stores a brand.
func (s *Service) RegisterBrand(ctx context.Context, in BrandInput) (int64, error) {
	in.trim()
	if err := validate(brandValidator, gojsonschema.NewGoLoader(in)); err != nil {
		return 0, err
	}
	id, err := s.repo.InsertBrand(ctx, in.Name, in.Niche, in.Budget)
	if err != nil {
		return 0, fmt.Errorf("register brand: %w", err)
	}
	metrics.Registrations.WithLabelValues("brand").Inc()
	s.log.Info("brand registered", zap.Int64("id", id), zap.String("name", in.Name), zap.String("niche", in.Niche))
	return id, nil
}
