package blend

import (
	"errors"
	"fmt"
	"image"
	"math"
)

var (
	ErrDimensionMismatch = errors.New("frame dimensions do not match")
	ErrInvalidSteps      = errors.New("blend steps must not be negative")
)

// Ratio is the mixing ratio of blend step i (1-based) out of steps.
func Ratio(i, steps int) float64 {
	return float64(i) / float64(steps+1)
}

// Ratios lists the ratios 1/(steps+1) .. steps/(steps+1).
func Ratios(steps int) []float64 {
	if steps <= 0 {
		return nil
	}
	r := make([]float64, steps)
	for i := range r {
		r[i] = Ratio(i+1, steps)
	}
	return r
}

// Interpolate returns steps frames between a and b at evenly spaced ratios.
// a and b themselves are never part of the result.
func Interpolate(a, b *image.RGBA, steps int) ([]*image.RGBA, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSteps, steps)
	}
	if err := SameSize(a.Bounds(), b.Bounds()); err != nil {
		return nil, err
	}
	frames := make([]*image.RGBA, 0, steps)
	for _, alpha := range Ratios(steps) {
		img, err := Mix(a, b, alpha)
		if err != nil {
			return nil, err
		}
		frames = append(frames, img)
	}
	return frames, nil
}

// Mix computes (1-alpha)*a + alpha*b per channel into a new frame.
// The sum is kept in float64 and rounded once, then clamped to 0..255.
func Mix(a, b *image.RGBA, alpha float64) (*image.RGBA, error) {
	if err := SameSize(a.Bounds(), b.Bounds()); err != nil {
		return nil, err
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	wa, wb := 1-alpha, alpha
	rowLen := w * 4

	for y := 0; y < h; y++ {
		ra := a.Pix[a.PixOffset(a.Rect.Min.X, a.Rect.Min.Y+y):][:rowLen]
		rb := b.Pix[b.PixOffset(b.Rect.Min.X, b.Rect.Min.Y+y):][:rowLen]
		ro := out.Pix[out.PixOffset(0, y):][:rowLen]
		for x := 0; x < rowLen; x += 4 {
			ro[x+0] = channel(wa*float64(ra[x+0]) + wb*float64(rb[x+0]))
			ro[x+1] = channel(wa*float64(ra[x+1]) + wb*float64(rb[x+1]))
			ro[x+2] = channel(wa*float64(ra[x+2]) + wb*float64(rb[x+2]))
			ro[x+3] = 0xff
		}
	}
	return out, nil
}

// SameSize reports ErrDimensionMismatch when a and b differ in width or height.
func SameSize(a, b image.Rectangle) error {
	if a.Dx() != b.Dx() || a.Dy() != b.Dy() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Dx(), a.Dy(), b.Dx(), b.Dy())
	}
	return nil
}

func channel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
