package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// reference frame height the offsets below were tuned on
const refHeight = 1080.0

// MinHeight is the smallest frame height at which the four regions stay on
// separate rows. Smaller frames still get stamped, with lines running into
// each other.
const MinHeight = 144

type Field int

const (
	FieldDay Field = iota
	FieldDate
	FieldClock
	FieldCounter
)

// Lines are the four overlay strings of one frame.
type Lines struct {
	Day     string
	Date    string
	Clock   string
	Counter string
}

func (l Lines) text(f Field) string {
	switch f {
	case FieldDay:
		return l.Day
	case FieldDate:
		return l.Date
	case FieldClock:
		return l.Clock
	default:
		return l.Counter
	}
}

// Region is where one field is drawn: left edge, text baseline and font size
// in pixels.
type Region struct {
	Field    Field
	X        int
	Baseline int
	Size     float64
}

// Box is a conservative bounding box of the text line (ascenders up to Size
// above the baseline, descenders up to Size/4 below).
func (r Region) Box(width int) image.Rectangle {
	return image.Rect(r.X, r.Baseline-int(math.Ceil(r.Size)), width, r.Baseline+int(math.Ceil(r.Size/4)))
}

// Regions places day, date, clock and counter from top to bottom, anchored to
// the bottom edge and scaled with the frame height. The boxes are disjoint
// for heights from MinHeight up.
func Regions(height int) []Region {
	u := float64(height) / refHeight
	at := func(f Field, x, fromBottom, size float64) Region {
		return Region{
			Field:    f,
			X:        int(math.Round(x * u)),
			Baseline: height - int(math.Round(fromBottom*u)),
			Size:     math.Max(1, size*u),
		}
	}
	return []Region{
		at(FieldDay, 40, 300, 64),
		at(FieldDate, 50, 240, 32),
		at(FieldClock, 40, 150, 64),
		at(FieldCounter, 40, 40, 64),
	}
}

// Painter draws overlay lines. Faces are cached per size, so one Painter
// serves a whole run of equally sized frames.
type Painter struct {
	font  *opentype.Font
	faces map[float64]font.Face
	color image.Image
}

func NewPainter(c color.Color) (*Painter, error) {
	f, err := opentype.Parse(gomedium.TTF)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse overlay font: %w", err)
	}
	return &Painter{
		font:  f,
		faces: make(map[float64]font.Face),
		color: image.NewUniform(c),
	}, nil
}

// Stamp returns a copy of src with the lines drawn on it. src is not modified.
func (p *Painter) Stamp(src *image.RGBA, lines Lines) (*image.RGBA, error) {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	if dst.Stride != src.Stride {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	}

	origin := dst.Bounds().Min
	for _, r := range Regions(dst.Bounds().Dy()) {
		face, err := p.face(r.Size)
		if err != nil {
			return nil, err
		}
		d := font.Drawer{
			Dst:  dst,
			Src:  p.color,
			Face: face,
			Dot:  fixed.P(origin.X+r.X, origin.Y+r.Baseline),
		}
		d.DrawString(lines.text(r.Field))
	}
	return dst, nil
}

func (p *Painter) face(size float64) (font.Face, error) {
	if face, ok := p.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(p.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("Cannot create %.1fpx font face: %w", size, err)
	}
	p.faces[size] = face
	return face, nil
}

func (p *Painter) Close() error {
	for size, face := range p.faces {
		if err := face.Close(); err != nil {
			return err
		}
		delete(p.faces, size)
	}
	return nil
}
