package lesion

import (
	"context"
	"image"
	"math"

	"github.com/carepoint/backend/internal/domain"
)

const (
	colorSampleStride = 16 // every 4th RGBA pixel
	edgeDiffThreshold = 100
	edgeSaturation    = 1000
	skinDiffThreshold = 150
)

// measure computes the four heuristics over a preprocessed buffer, checking
// ctx between passes.
func measure(ctx context.Context, buf *image.RGBA) (domain.Metrics, error) {
	var m domain.Metrics

	passes := []func(*image.RGBA) float64{colorVariance, borderIrregularity, asymmetry, skinRatio}
	results := make([]float64, len(passes))
	for i, pass := range passes {
		if err := ctx.Err(); err != nil {
			return m, err
		}
		results[i] = pass(buf)
	}

	m.ColorVariance = results[0]
	m.BorderIrregularity = results[1]
	m.Asymmetry = results[2]
	m.SkinRatio = results[3]
	return m, nil
}

func colorVariance(buf *image.RGBA) float64 {
	pix := buf.Pix
	var sumR, sumG, sumB float64
	n := 0
	for i := 0; i+2 < len(pix); i += colorSampleStride {
		sumR += float64(pix[i])
		sumG += float64(pix[i+1])
		sumB += float64(pix[i+2])
		n++
	}
	if n == 0 {
		return 0
	}
	meanR, meanG, meanB := sumR/float64(n), sumG/float64(n), sumB/float64(n)

	var dev float64
	for i := 0; i+2 < len(pix); i += colorSampleStride {
		dev += math.Abs(float64(pix[i])-meanR) +
			math.Abs(float64(pix[i+1])-meanG) +
			math.Abs(float64(pix[i+2])-meanB)
	}
	return dev / (float64(n) * 3 * 255)
}

func borderIrregularity(buf *image.RGBA) float64 {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	edges := 0
	for y := 1; y < h-1; y++ {
		row := y * buf.Stride
		for x := 1; x < w-1; x++ {
			left := row + (x-1)*4
			right := row + (x+1)*4
			if rgbDiff(buf.Pix[left:left+3], buf.Pix[right:right+3]) > edgeDiffThreshold {
				edges++
			}
		}
	}
	return math.Min(1, float64(edges)/edgeSaturation)
}

func asymmetry(buf *image.RGBA) float64 {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	half := w / 2
	if half == 0 {
		return 0
	}
	var total float64
	compared := 0
	for y := 0; y < h; y++ {
		row := y * buf.Stride
		for x := 0; x < half; x++ {
			a := row + x*4
			b := row + (w-x-1)*4
			total += float64(rgbDiff(buf.Pix[a:a+3], buf.Pix[b:b+3]))
			compared += 3
		}
	}
	return total / (float64(compared) * 255)
}

func skinRatio(buf *image.RGBA) float64 {
	w, h := buf.Rect.Dx(), buf.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	c := (h/2)*buf.Stride + (w/2)*4
	ref := buf.Pix[c : c+3]

	skin := 0
	for y := 0; y < h; y++ {
		row := y * buf.Stride
		for x := 0; x < w; x++ {
			p := row + x*4
			if rgbDiff(buf.Pix[p:p+3], ref) < skinDiffThreshold {
				skin++
			}
		}
	}
	return float64(skin) / float64(w*h)
}

func rgbDiff(a, b []uint8) int {
	return absInt(int(a[0])-int(b[0])) + absInt(int(a[1])-int(b[1])) + absInt(int(a[2])-int(b[2]))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
