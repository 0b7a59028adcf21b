// Package lesion scores skin images with ABCD-style pixel heuristics:
// asymmetry, border irregularity, color variance and skin-area ratio.
package lesion

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/pkg/utils"
)

// Weights awarded when a metric exceeds its threshold. Each set sums to 1.
type Weights struct {
	Asymmetry float64
	Border    float64
	Color     float64
	Diameter  float64
}

var (
	SkinCancerWeights = Weights{Asymmetry: 0.3, Border: 0.25, Color: 0.25, Diameter: 0.2}
	EczemaWeights     = Weights{Asymmetry: 0.1, Border: 0.35, Color: 0.35, Diameter: 0.2}
)

// WeightsFor returns the weight set of a mode.
func WeightsFor(mode domain.Mode) Weights {
	if mode == domain.ModeEczema {
		return EczemaWeights
	}
	return SkinCancerWeights
}

// Scorer turns images into detection results.
type Scorer struct {
	size int
	now  func() time.Time
}

type ScorerOption func(*Scorer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ScorerOption {
	return func(s *Scorer) { s.now = now }
}

// WithSampleSize overrides the preprocessing buffer size.
func WithSampleSize(size int) ScorerOption {
	return func(s *Scorer) { s.size = size }
}

func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{size: SampleSize, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type scoreOptions struct {
	mode    domain.Mode
	session *DemoSession
}

// ScoreOption configures a single Score call.
type ScoreOption func(*scoreOptions)

// WithMode selects the label set; the default is skin-cancer.
func WithMode(mode domain.Mode) ScoreOption {
	return func(o *scoreOptions) { o.mode = mode }
}

// WithSession attaches a demo session. See DemoSession.
func WithSession(s *DemoSession) ScoreOption {
	return func(o *scoreOptions) { o.session = s }
}

// Analyze preprocesses img and computes its metrics.
func (s *Scorer) Analyze(ctx context.Context, img image.Image) (domain.Metrics, error) {
	buf, err := Preprocess(img, s.size)
	if err != nil {
		return domain.Metrics{}, err
	}
	m, err := measure(ctx, buf)
	if err != nil {
		return domain.Metrics{}, contextError(err)
	}
	return m, nil
}

// Score computes the metrics of img and maps them to a prediction using th.
func (s *Scorer) Score(ctx context.Context, img image.Image, th domain.ThresholdConfig, opts ...ScoreOption) (domain.DetectionResult, error) {
	o := scoreOptions{mode: domain.ModeSkinCancer}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.mode.Valid() {
		return domain.DetectionResult{}, apperror.NewInputError(fmt.Sprintf("unknown mode %q", o.mode))
	}
	if img == nil {
		return domain.DetectionResult{}, apperror.NewInputError("image is nil")
	}

	if o.session != nil {
		if forced, ok := o.session.next(o.mode); ok {
			forced.ID = uuid.NewString()
			forced.Timestamp = s.now()
			return forced, nil
		}
	}

	metrics, err := s.Analyze(ctx, img)
	if err != nil {
		return domain.DetectionResult{}, err
	}

	prediction, confidence, score := Decide(o.mode, metrics, th.Clamp())
	return domain.DetectionResult{
		ID:         uuid.NewString(),
		Mode:       o.mode,
		Prediction: prediction,
		Confidence: confidence,
		Score:      score,
		Metrics:    &metrics,
		Source:     domain.SourceHeuristic,
		Timestamp:  s.now(),
	}, nil
}

// Decide sums the weights of every metric above its threshold. A score above
// 0.5 yields the positive label with confidence = score; otherwise the
// negative label with confidence = 1 - score.
func Decide(mode domain.Mode, m domain.Metrics, th domain.ThresholdConfig) (prediction string, confidence, score float64) {
	w := WeightsFor(mode)
	if m.Asymmetry > th.Asymmetry {
		score += w.Asymmetry
	}
	if m.BorderIrregularity > th.Border {
		score += w.Border
	}
	if m.ColorVariance > th.Color {
		score += w.Color
	}
	if m.SkinRatio > th.Diameter {
		score += w.Diameter
	}
	score = utils.Clamp(utils.RoundTo(score, 4), 0, 1)

	positive, negative := mode.Labels()
	if score > 0.5 {
		return positive, score, score
	}
	return negative, utils.RoundTo(1-score, 4), score
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeoutError("score image", err)
	}
	return fmt.Errorf("lesion: %w", err)
}
