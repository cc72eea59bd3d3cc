/*
Package quantize maps true color images onto a fixed palette.

Unlike an adaptive quantizer nothing is derived from the image; every pixel
is matched independently against all of the registered colors and the
closest one by perceptual distance wins. No dithering is applied.
*/
package quantize

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

const (
	// MaxColors is the most fixed colors a Quantizer can hold
	MaxColors = 256

	// MaxDimension is the largest supported width or height
	MaxDimension = 255

	// IconDimension is the conventional width and height of an icon
	IconDimension = 16
)

var (
	// ErrDimension is returned when an image is too big or empty
	ErrDimension = errors.New("quantize: invalid image dimension")

	// ErrTooManyColors is returned when registering more than MaxColors
	ErrTooManyColors = errors.New("quantize: too many fixed colors")

	// ErrNoColors is returned when remapping before any colors are registered
	ErrNoColors = errors.New("quantize: no fixed colors")

	// ErrBufferSize is returned when the destination buffer doesn't match
	// the image
	ErrBufferSize = errors.New("quantize: wrong buffer size")
)

// DimensionError records which dimension of an image is out of range.
type DimensionError struct {
	Dimension string
	Value     int
}

func (e *DimensionError) Error() string {
	if e.Value < 1 {
		return fmt.Sprintf("%s is %d, minimum supported is 1", e.Dimension, e.Value)
	}
	return fmt.Sprintf("%s is %d, maximum supported is %d", e.Dimension, e.Value, MaxDimension)
}

// Unwrap returns ErrDimension.
func (e *DimensionError) Unwrap() error {
	return ErrDimension
}

// Validate checks the dimensions of r. Width is checked before height.
func Validate(r image.Rectangle) error {
	if w := r.Dx(); w < 1 || w > MaxDimension {
		return &DimensionError{"width", w}
	}
	if h := r.Dy(); h < 1 || h > MaxDimension {
		return &DimensionError{"height", h}
	}
	return nil
}

// Advisory reports whether r is something other than the conventional
// 16 by 16 icon size. It's not an error.
func Advisory(r image.Rectangle) bool {
	return r.Dx() != IconDimension || r.Dy() != IconDimension
}

// Quantizer holds an ordered list of fixed colors. The index of each color
// is its position in registration order.
type Quantizer struct {
	colors []lab
}

// New returns a Quantizer with no colors.
func New() *Quantizer {
	return &Quantizer{
		colors: make([]lab, 0, MaxColors),
	}
}

// AddFixedColor registers c as the next palette index. Alpha is ignored.
func (q *Quantizer) AddFixedColor(c color.Color) error {
	if len(q.colors) == MaxColors {
		return ErrTooManyColors
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	q.colors = append(q.colors, toLab(n.R, n.G, n.B))
	return nil
}

// Len returns the number of registered colors.
func (q *Quantizer) Len() int {
	return len(q.colors)
}

// index returns the closest registered color, ties go to the lowest index
func (q *Quantizer) index(c lab) uint8 {
	best, bestSum := 0, q.colors[0].distance(c)
	for i, v := range q.colors[1:] {
		if sum := v.distance(c); sum < bestSum {
			best, bestSum = i+1, sum
		}
	}
	return uint8(best)
}

type nrgbaImage interface {
	NRGBAAt(x, y int) color.NRGBA
}

func at(m image.Image, x, y int) color.NRGBA {
	if n, ok := m.(nrgbaImage); ok {
		return n.NRGBAAt(x, y)
	}
	return color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
}

// Remap writes the palette index of every pixel of m into dst in row-major
// order. dst must be exactly width*height bytes.
func (q *Quantizer) Remap(m image.Image, dst []byte) error {
	if len(q.colors) == 0 {
		return ErrNoColors
	}

	b := m.Bounds()
	if len(dst) != b.Dx()*b.Dy() {
		return ErrBufferSize
	}

	// Icons rarely use many distinct colors
	cache := make(map[[3]uint8]uint8)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := at(m, x, y)
			k := [3]uint8{c.R, c.G, c.B}
			v, ok := cache[k]
			if !ok {
				v = q.index(toLab(c.R, c.G, c.B))
				cache[k] = v
			}
			dst[i] = v
			i++
		}
	}

	return nil
}

// Quantize validates the dimensions of m and remaps it onto p, every entry
// of which is registered as a fixed color in order. The returned image has
// its origin at (0, 0) and uses p as its palette.
func Quantize(m image.Image, p color.Palette) (*image.Paletted, error) {
	b := m.Bounds()
	if err := Validate(b); err != nil {
		return nil, err
	}

	q := New()
	for _, c := range p {
		if err := q.AddFixedColor(c); err != nil {
			return nil, err
		}
	}

	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)
	if err := q.Remap(m, pm.Pix); err != nil {
		return nil, err
	}

	return pm, nil
}
