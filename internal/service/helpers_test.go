package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carepoint/backend/internal/domain"
)

// ==========================
// Mock Implementations
// ==========================

type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error)
}

func (m *MockClassifier) Classify(ctx context.Context, mode domain.Mode, base64Image string) (domain.DetectionResult, error) {
	return m.ClassifyFunc(ctx, mode, base64Image)
}

type MockNotifier struct {
	NotifyFunc func(ctx context.Context, doctor domain.Account, req domain.ServiceRequest) error
}

func (m *MockNotifier) NotifyDoctor(ctx context.Context, doctor domain.Account, req domain.ServiceRequest) error {
	return m.NotifyFunc(ctx, doctor, req)
}

// ==========================
// Test Helper Functions
// ==========================

func checkerboardPNG(t *testing.T, size, cell int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidPNG(t *testing.T, size int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
