package service

import (
	"context"
	"time"

	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/matcher"
	"github.com/carepoint/backend/internal/metrics"
)

// RecommendationService turns symptom descriptions into doctor suggestions
type RecommendationService struct {
	matcher *matcher.Matcher
	timeout time.Duration
	logger  logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(m *matcher.Matcher, timeout time.Duration, log logger.Logger) *RecommendationService {
	return &RecommendationService{
		matcher: m,
		timeout: timeout,
		logger:  log,
	}
}

// Recommend matches the symptoms and generates doctors for every specialty.
// Empty symptoms are valid and yield the fallback specialty.
func (s *RecommendationService) Recommend(ctx context.Context, query domain.SymptomQuery) (domain.RecommendationResponse, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := checkContext(ctx, "match specialties"); err != nil {
		return domain.RecommendationResponse{}, err
	}

	specialties := s.matcher.Specialties(query.Symptoms)
	doctors := s.matcher.Generate(specialties, query.Location)

	if err := checkContext(ctx, "match specialties"); err != nil {
		return domain.RecommendationResponse{}, err
	}

	for _, sp := range specialties {
		metrics.RecommendationsTotal.WithLabelValues(string(sp)).Inc()
	}
	s.logger.Debug("matched specialties", map[string]interface{}{
		"specialties": specialties,
		"doctors":     len(doctors),
	})

	return domain.RecommendationResponse{
		Specialties: specialties,
		Doctors:     doctors,
		Success:     true,
	}, nil
}

// Specialties lists every specialty a recommendation can contain.
func (s *RecommendationService) Specialties() []domain.Specialty {
	return s.matcher.Catalog()
}
