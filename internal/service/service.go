package service

import (
	"context"
	"errors"
	"time"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// ThresholdCache is the optional read-through cache in front of the
// threshold repository.
type ThresholdCache interface {
	Get(ctx context.Context) (domain.ThresholdConfig, bool, error)
	Set(ctx context.Context, cfg domain.ThresholdConfig) error
	Invalidate(ctx context.Context) error
}

// Classifier labels images remotely.
type Classifier interface {
	Classify(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error)
}

// withTimeout applies d to ctx; zero leaves ctx untouched.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// checkContext reports a finished context as a structured error.
func checkContext(ctx context.Context, op string) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeoutError(op, err)
	}
	return err
}
