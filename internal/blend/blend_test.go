package blend

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestRatios(t *testing.T) {
	testCases := []struct {
		steps int
		want  []float64
	}{
		{steps: 0, want: nil},
		{steps: 1, want: []float64{0.5}},
		{steps: 3, want: []float64{0.25, 0.5, 0.75}},
		{steps: 4, want: []float64{0.2, 0.4, 0.6, 0.8}},
	}

	for _, tc := range testCases {
		got := Ratios(tc.steps)
		if len(got) != len(tc.want) {
			t.Fatalf("steps=%d: got %d ratios, want %d", tc.steps, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("steps=%d ratio %d: got %v, want %v", tc.steps, i, got[i], tc.want[i])
			}
			if got[i] <= 0 || got[i] >= 1 {
				t.Errorf("steps=%d ratio %d: %v not strictly inside (0,1)", tc.steps, i, got[i])
			}
			if i > 0 && got[i] <= got[i-1] {
				t.Errorf("steps=%d: ratios not increasing at %d", tc.steps, i)
			}
		}
	}
}

func TestInterpolateCount(t *testing.T) {
	a := solid(4, 3, color.RGBA{0, 0, 0, 255})
	b := solid(4, 3, color.RGBA{255, 255, 255, 255})

	for steps := 0; steps <= 5; steps++ {
		frames, err := Interpolate(a, b, steps)
		if err != nil {
			t.Fatalf("steps=%d: %v", steps, err)
		}
		if len(frames) != steps {
			t.Errorf("steps=%d: got %d frames", steps, len(frames))
		}
	}
}

func TestInterpolateValues(t *testing.T) {
	a := solid(2, 2, color.RGBA{0, 30, 200, 255})
	b := solid(2, 2, color.RGBA{90, 30, 100, 255})

	frames, err := Interpolate(a, b, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []color.RGBA{
		{30, 30, 167, 255}, // 200 - 100/3 = 166.67
		{60, 30, 133, 255}, // 200 - 200/3 = 133.33
	}
	for i, f := range frames {
		got := f.RGBAAt(1, 1)
		if got != want[i] {
			t.Errorf("frame %d: got %v, want %v", i, got, want[i])
		}
	}
}

func TestInterpolateDoesNotTouchSources(t *testing.T) {
	a := solid(3, 3, color.RGBA{10, 20, 30, 255})
	b := solid(3, 3, color.RGBA{200, 100, 50, 255})
	before := append([]uint8(nil), a.Pix...)

	if _, err := Interpolate(a, b, 3); err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if a.Pix[i] != before[i] {
			t.Fatalf("source frame changed at byte %d", i)
		}
	}
}

func TestInterpolateDimensionMismatch(t *testing.T) {
	a := solid(4, 3, color.RGBA{A: 255})
	b := solid(3, 4, color.RGBA{A: 255})

	frames, err := Interpolate(a, b, 2)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	if frames != nil {
		t.Errorf("got %d frames on error", len(frames))
	}
}

func TestInterpolateNegativeSteps(t *testing.T) {
	a := solid(1, 1, color.RGBA{A: 255})
	if _, err := Interpolate(a, a, -1); !errors.Is(err, ErrInvalidSteps) {
		t.Errorf("got %v, want ErrInvalidSteps", err)
	}
}

func TestMixSubImage(t *testing.T) {
	big := solid(6, 6, color.RGBA{0, 0, 0, 255})
	big.SetRGBA(3, 3, color.RGBA{100, 100, 100, 255})
	sub := big.SubImage(image.Rect(2, 2, 5, 5)).(*image.RGBA)
	other := solid(3, 3, color.RGBA{200, 200, 200, 255})

	out, err := Mix(sub, other, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 3, 3) {
		t.Errorf("bounds: got %v", out.Bounds())
	}
	if got := out.RGBAAt(1, 1); got != (color.RGBA{150, 150, 150, 255}) {
		t.Errorf("centre: got %v", got)
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{100, 100, 100, 255}) {
		t.Errorf("corner: got %v", got)
	}
}

func TestMixEndpoints(t *testing.T) {
	a := solid(2, 1, color.RGBA{12, 34, 56, 255})
	b := solid(2, 1, color.RGBA{250, 1, 128, 255})

	zero, _ := Mix(a, b, 0)
	one, _ := Mix(a, b, 1)
	if zero.RGBAAt(0, 0) != a.RGBAAt(0, 0) {
		t.Errorf("alpha 0: got %v", zero.RGBAAt(0, 0))
	}
	if one.RGBAAt(0, 0) != b.RGBAAt(0, 0) {
		t.Errorf("alpha 1: got %v", one.RGBAAt(0, 0))
	}
}
