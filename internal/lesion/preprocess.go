package lesion

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/carepoint/backend/internal/apperror"
)

// SampleSize is the edge length of the buffer every image is reduced to.
const SampleSize = 224

// Decode reads an uploaded JPEG, PNG, GIF or WebP image.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperror.NewInputError("image is empty")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.NewPreprocessingError(fmt.Errorf("decode image: %w", err))
	}
	return img, nil
}

// Preprocess draws img into a size×size RGBA buffer.
func Preprocess(img image.Image, size int) (*image.RGBA, error) {
	if img == nil {
		return nil, apperror.NewInputError("image is nil")
	}
	src := img.Bounds()
	if src.Empty() {
		return nil, apperror.NewInputError("image has no pixels")
	}
	if size < 3 {
		return nil, apperror.NewPreprocessingError(errors.New("sample size must be at least 3"))
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if src.Dx() == size && src.Dy() == size {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst, nil
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst, nil
}
