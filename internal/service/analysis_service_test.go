package service

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/lesion"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/repository/memory"
)

func newAnalysisService(t *testing.T, cls Classifier, opts AnalysisOptions) (*AnalysisService, *memory.Repository) {
	repo := memory.NewRepository()
	log := logger.NewTestLogger(t)
	thresholds := NewThresholdService(repo, nil, log)
	s := NewAnalysisService(lesion.NewScorer(), thresholds, cls, repo, opts, log)
	t.Cleanup(s.WaitBackground)
	return s, repo
}

func TestDetect_PersistsResult(t *testing.T) {
	s, repo := newAnalysisService(t, nil, AnalysisOptions{})

	res, err := s.Detect(context.Background(), domain.ModeSkinCancer, checkerboardPNG(t, 224, 8))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelMalignant, res.Prediction)
	assert.Equal(t, domain.SourceHeuristic, res.Source)

	s.WaitBackground()
	history, err := repo.ListDetections(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.ID, history[0].ID)
}

func TestDetect_UsesStoredThresholds(t *testing.T) {
	s, _ := newAnalysisService(t, nil, AnalysisOptions{})
	_, err := s.thresholds.Set(context.Background(), domain.NewThresholdConfig(1, 1, 1, 1))
	require.NoError(t, err)

	res, err := s.Detect(context.Background(), domain.ModeSkinCancer, checkerboardPNG(t, 224, 8))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelBenign, res.Prediction)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestDetect_InvalidUploads(t *testing.T) {
	s, _ := newAnalysisService(t, nil, AnalysisOptions{})

	_, err := s.Detect(context.Background(), domain.ModeSkinCancer, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = s.Detect(context.Background(), domain.ModeSkinCancer, []byte("plain text"))
	assert.ErrorIs(t, err, apperror.ErrPreprocessing)
}

func TestDetect_DemoSession(t *testing.T) {
	s, _ := newAnalysisService(t, nil, AnalysisOptions{DemoSession: true})
	img := checkerboardPNG(t, 224, 8)

	first, err := s.Detect(context.Background(), domain.ModeSkinCancer, img)
	require.NoError(t, err)
	second, err := s.Detect(context.Background(), domain.ModeSkinCancer, img)
	require.NoError(t, err)

	assert.Equal(t, domain.LabelMalignant, first.Prediction)
	assert.Equal(t, domain.LabelBenign, second.Prediction)
	assert.Equal(t, 0.95, second.Confidence)
	assert.Equal(t, domain.SourceDemo, second.Source)
}

func TestAnalyzeBoth(t *testing.T) {
	s, _ := newAnalysisService(t, nil, AnalysisOptions{DemoSession: true})

	results, err := s.AnalyzeBoth(context.Background(), solidPNG(t, 64, color.RGBA{200, 150, 120, 255}))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, domain.ModeSkinCancer, results[0].Mode)
	assert.Equal(t, domain.LabelBenign, results[0].Prediction)
	assert.Equal(t, domain.ModeEczema, results[1].Mode)
	assert.Equal(t, domain.LabelNoEczema, results[1].Prediction)
	assert.Equal(t, domain.SourceHeuristic, results[1].Source)
}

func TestClassify_Remote(t *testing.T) {
	var sent string
	cls := &MockClassifier{
		ClassifyFunc: func(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error) {
			sent = base64Image
			return domain.DetectionResult{ID: "r-1", Mode: mode, Prediction: domain.LabelEczema, Confidence: 0.9, Source: domain.SourceRemote, Timestamp: time.Now()}, nil
		},
	}
	s, _ := newAnalysisService(t, cls, AnalysisOptions{})

	res, err := s.Classify(context.Background(), domain.ModeEczema, checkerboardPNG(t, 16, 4))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelEczema, res.Prediction)
	assert.True(t, strings.HasPrefix(sent, "data:image/png;base64,"))
}

func TestClassify_FailOpen(t *testing.T) {
	failing := &MockClassifier{
		ClassifyFunc: func(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error) {
			return domain.DetectionResult{}, apperror.NewExternalServiceError("classifier", errors.New("503"))
		},
	}

	t.Run("fail open returns fallback", func(t *testing.T) {
		s, _ := newAnalysisService(t, failing, AnalysisOptions{FailOpen: true})

		res, err := s.Classify(context.Background(), domain.ModeSkinCancer, []byte("img"))
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Equal(t, domain.LabelBenign, res.Prediction)
		assert.Equal(t, 0.5, res.Confidence)
		assert.NotEmpty(t, res.Error)
	})

	t.Run("fail closed returns error", func(t *testing.T) {
		s, _ := newAnalysisService(t, failing, AnalysisOptions{FailOpen: false})

		_, err := s.Classify(context.Background(), domain.ModeSkinCancer, []byte("img"))
		assert.ErrorIs(t, err, apperror.ErrExternal)
	})

	t.Run("no classifier configured", func(t *testing.T) {
		s, _ := newAnalysisService(t, nil, AnalysisOptions{FailOpen: false})

		_, err := s.Classify(context.Background(), domain.ModeEczema, []byte("img"))
		assert.ErrorIs(t, err, apperror.ErrExternal)
	})

	t.Run("input errors never fall back", func(t *testing.T) {
		s, _ := newAnalysisService(t, failing, AnalysisOptions{FailOpen: true})

		_, err := s.Classify(context.Background(), "acne", []byte("img"))
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)

		_, err = s.Classify(context.Background(), domain.ModeEczema, nil)
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})
}

func TestHistory_Limits(t *testing.T) {
	s, repo := newAnalysisService(t, nil, AnalysisOptions{})
	base := time.Now()
	for i := 0; i < MaxHistoryLimit+5; i++ {
		require.NoError(t, repo.SaveDetection(context.Background(), domain.DetectionResult{Timestamp: base.Add(time.Duration(i) * time.Second)}))
	}

	got, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultHistoryLimit)

	got, err = s.History(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, got, MaxHistoryLimit)
}

func TestEncodeDataURL(t *testing.T) {
	assert.Equal(t, "data:text/plain; charset=utf-8;base64,aGk=", EncodeDataURL([]byte("hi")))
}
