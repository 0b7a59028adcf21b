package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/logger"
)

// ThresholdService owns the active threshold configuration. Values are
// clamped on write, persisted through the repository and cached when a cache
// is configured.
type ThresholdService struct {
	repo   domain.ThresholdRepository
	cache  ThresholdCache
	logger logger.Logger
}

// NewThresholdService creates a threshold service; cache may be nil.
func NewThresholdService(repo domain.ThresholdRepository, cache ThresholdCache, log logger.Logger) *ThresholdService {
	return &ThresholdService{repo: repo, cache: cache, logger: log}
}

// Get returns the stored configuration or DefaultThresholds.
func (s *ThresholdService) Get(ctx context.Context) (domain.ThresholdConfig, error) {
	if s.cache != nil {
		cfg, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("threshold cache read failed", map[string]interface{}{"error": err.Error()})
		} else if ok {
			return cfg, nil
		}
	}

	cfg, err := s.repo.GetThresholds(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cfg = domain.DefaultThresholds
	case err != nil:
		return domain.ThresholdConfig{}, fmt.Errorf("service: failed to load thresholds: %w", err)
	}

	s.fillCache(ctx, cfg)
	return cfg, nil
}

// Set clamps cfg to [0,1], stores it and returns the stored value.
func (s *ThresholdService) Set(ctx context.Context, cfg domain.ThresholdConfig) (domain.ThresholdConfig, error) {
	cfg = cfg.Clamp()
	if err := s.repo.SaveThresholds(ctx, cfg); err != nil {
		return domain.ThresholdConfig{}, fmt.Errorf("service: failed to save thresholds: %w", err)
	}
	s.fillCache(ctx, cfg)

	s.logger.Info("thresholds updated", map[string]interface{}{
		"asymmetry": cfg.Asymmetry,
		"border":    cfg.Border,
		"color":     cfg.Color,
		"diameter":  cfg.Diameter,
	})
	return cfg, nil
}

// Reset drops the stored configuration, restoring DefaultThresholds.
func (s *ThresholdService) Reset(ctx context.Context) (domain.ThresholdConfig, error) {
	if err := s.repo.DeleteThresholds(ctx); err != nil {
		return domain.ThresholdConfig{}, fmt.Errorf("service: failed to reset thresholds: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("threshold cache invalidate failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return domain.DefaultThresholds, nil
}

func (s *ThresholdService) fillCache(ctx context.Context, cfg domain.ThresholdConfig) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cfg); err != nil {
		s.logger.Warn("threshold cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
