package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/classifier"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/lesion"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/metrics"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// AnalysisOptions configures an AnalysisService.
type AnalysisOptions struct {
	// Timeout wraps each scoring or classification call; zero disables it.
	Timeout time.Duration
	// FailOpen returns classifier.Fallback instead of an error when the
	// remote classifier is unavailable.
	FailOpen bool
	// DemoSession attaches a lesion.DemoSession to single-mode detections.
	DemoSession bool
}

// AnalysisService scores uploaded skin images locally or remotely and keeps
// a history of the results.
type AnalysisService struct {
	scorer     *lesion.Scorer
	thresholds *ThresholdService
	classifier Classifier
	repo       domain.DetectionRepository
	session    *lesion.DemoSession
	opts       AnalysisOptions
	logger     logger.Logger

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewAnalysisService creates a new analysis service. cls may be nil when no
// remote classifier is configured.
func NewAnalysisService(
	scorer *lesion.Scorer,
	thresholds *ThresholdService,
	cls Classifier,
	repo domain.DetectionRepository,
	opts AnalysisOptions,
	log logger.Logger,
) *AnalysisService {
	s := &AnalysisService{
		scorer:     scorer,
		thresholds: thresholds,
		classifier: cls,
		repo:       repo,
		opts:       opts,
		logger:     log,
	}
	if opts.DemoSession {
		s.session = lesion.NewDemoSession()
	}
	return s
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *AnalysisService) WaitBackground() {
	s.wgBg.Wait()
}

// Detect decodes an uploaded image and scores it in the given mode.
func (s *AnalysisService) Detect(ctx context.Context, mode domain.Mode, data []byte) (domain.DetectionResult, error) {
	img, err := lesion.Decode(data)
	if err != nil {
		s.recordFailure(mode, err)
		return domain.DetectionResult{}, err
	}
	return s.DetectImage(ctx, mode, img)
}

// DetectImage scores an already decoded image.
func (s *AnalysisService) DetectImage(ctx context.Context, mode domain.Mode, img image.Image) (domain.DetectionResult, error) {
	opts := []lesion.ScoreOption{lesion.WithMode(mode)}
	if s.session != nil {
		opts = append(opts, lesion.WithSession(s.session))
	}
	return s.score(ctx, mode, img, opts...)
}

// AnalyzeBoth scores one upload for skin cancer and then eczema.
func (s *AnalysisService) AnalyzeBoth(ctx context.Context, data []byte) ([]domain.DetectionResult, error) {
	img, err := lesion.Decode(data)
	if err != nil {
		return nil, err
	}

	results := make([]domain.DetectionResult, 0, 2)
	for _, mode := range []domain.Mode{domain.ModeSkinCancer, domain.ModeEczema} {
		res, err := s.score(ctx, mode, img, lesion.WithMode(mode))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *AnalysisService) score(ctx context.Context, mode domain.Mode, img image.Image, opts ...lesion.ScoreOption) (domain.DetectionResult, error) {
	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	th, err := s.thresholds.Get(ctx)
	if err != nil {
		return domain.DetectionResult{}, err
	}

	start := time.Now()
	res, err := s.scorer.Score(ctx, img, th, opts...)
	metrics.AnalysisDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())
	if err != nil {
		s.recordFailure(mode, err)
		return domain.DetectionResult{}, err
	}

	s.record(res)
	return res, nil
}

// Classify sends the upload to the remote classifier. With FailOpen set,
// an unavailable classifier yields a degraded fallback result.
func (s *AnalysisService) Classify(ctx context.Context, mode domain.Mode, data []byte) (domain.DetectionResult, error) {
	if !mode.Valid() {
		return domain.DetectionResult{}, apperror.NewInputError(fmt.Sprintf("unknown mode %q", mode))
	}
	if len(data) == 0 {
		return domain.DetectionResult{}, apperror.NewInputError("image is empty")
	}

	ctx, cancel := withTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var (
		res domain.DetectionResult
		err error
	)
	if s.classifier == nil {
		err = apperror.NewExternalServiceError("classifier", errors.New("not configured"))
	} else {
		start := time.Now()
		res, err = s.classifier.Classify(ctx, mode, EncodeDataURL(data))
		metrics.AnalysisDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.recordFailure(mode, err)
		if !s.opts.FailOpen || !recoverable(err) {
			return domain.DetectionResult{}, err
		}
		s.logger.Warn("classifier unavailable, returning fallback", map[string]interface{}{
			"mode":  string(mode),
			"error": err.Error(),
		})
		res = classifier.Fallback(mode, err)
	}

	s.record(res)
	return res, nil
}

// History returns recent detections, newest first.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.DetectionResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	results, err := s.repo.ListDetections(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list detections: %w", err)
	}
	return results, nil
}

// record counts the result and persists it asynchronously (tracked for
// graceful shutdown).
func (s *AnalysisService) record(res domain.DetectionResult) {
	metrics.DetectionsTotal.WithLabelValues(string(res.Mode), res.Source, res.Prediction).Inc()

	metrics.BackgroundSavesActive.Inc()
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		defer metrics.BackgroundSavesActive.Dec()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveDetection(bgCtx, res); err != nil {
			s.logger.Error("failed to save detection", map[string]interface{}{
				"id":    res.ID,
				"error": err.Error(),
			})
		}
	}()
}

func (s *AnalysisService) recordFailure(mode domain.Mode, err error) {
	metrics.DetectionFailures.WithLabelValues(string(mode), string(apperror.From(err).Code)).Inc()
}

func recoverable(err error) bool {
	return errors.Is(err, apperror.ErrExternal) || errors.Is(err, apperror.ErrTimeout)
}

// EncodeDataURL wraps raw image bytes as a base64 data URL.
func EncodeDataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
