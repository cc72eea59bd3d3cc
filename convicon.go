/*
Package convicon is a library for converting images into program icons for
the TI-84 Plus CE and TI-83 Premium CE calculators.

An icon is quantized against the calculator's fixed 256 color palette,
optionally compressed and then written either as an assembly source file
for the toolchain or as a hex string for ICE programs.
*/
package convicon

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"log"

	"github.com/bodgit/convicon/artifact"
	"github.com/bodgit/convicon/compress"
	"github.com/bodgit/convicon/palette"
	"github.com/bodgit/convicon/quantize"
	"github.com/bodgit/convicon/raster"
)

// Icon describes a single conversion.
type Icon struct {
	// Image is the path of the source image, an empty string means the
	// program has no icon
	Image string

	// Output is the path of the file to write
	Output string

	Format      artifact.Format
	Compression compress.Mode
	Description string
}

// name returns whatever best identifies the icon in errors
func (i Icon) name() string {
	if i.Image != "" {
		return i.Image
	}
	return i.Output
}

func (i Icon) validate() error {
	switch i.Format {
	case artifact.Assembly, artifact.Hex:
	default:
		return &Error{i.name(), Validation, fmt.Errorf("%w: %v", artifact.ErrFormat, i.Format)}
	}

	switch i.Compression {
	case compress.None, compress.ZX7, compress.ZX0:
	default:
		return &Error{i.name(), Validation, fmt.Errorf("%w: %v", compress.ErrInvalidMode, i.Compression)}
	}

	return nil
}

type Converter struct {
	logger *log.Logger

	// Print a dot now and again while compressing
	progress bool
}

// New returns a Converter logging to logger. A nil logger discards
// everything.
func New(logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Converter{
		logger:   logger,
		progress: true,
	}
}

// SetProgress controls whether ZX0 compression prints progress dots to the
// logger. It is on by default.
func (c *Converter) SetProgress(on bool) {
	c.progress = on
}

func (c *Converter) compress(data []byte, mode compress.Mode) ([]byte, error) {
	if mode != compress.ZX0 || !c.progress {
		return compress.Compress(data, mode, nil)
	}

	w := c.logger.Writer()
	fmt.Fprint(w, "Compressing [")
	defer fmt.Fprint(w, "]\n")

	return compress.Compress(data, mode, func() {
		fmt.Fprint(w, ".")
	})
}

func (c *Converter) build(m image.Image, icon Icon) (*artifact.Artifact, error) {
	a := &artifact.Artifact{
		Format:      icon.Format,
		Description: icon.Description,
	}

	if m == nil {
		return a, nil
	}

	b := m.Bounds()
	if err := quantize.Validate(b); err != nil {
		return nil, &Error{icon.name(), Validation, err}
	}

	if quantize.Advisory(b) {
		c.logger.Printf("Icon \"%s\" is not %dx%d pixels\n", icon.name(), quantize.IconDimension, quantize.IconDimension)
	}

	pm, err := quantize.Quantize(m, palette.Palette())
	if err != nil {
		return nil, &Error{icon.name(), Validation, err}
	}

	data, err := c.compress(pm.Pix, icon.Compression)
	if err != nil {
		return nil, &Error{icon.name(), Compression, err}
	}

	a.Icon = &artifact.Icon{
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   data,
	}

	return a, nil
}

func writeError(name string, err error) error {
	for _, target := range []error{artifact.ErrFormat, artifact.ErrIcon, artifact.ErrDescription} {
		if errors.Is(err, target) {
			return &Error{name, Validation, err}
		}
	}
	return &Error{name, IO, err}
}

// Encode converts m, which may be nil, according to icon and writes the
// result to w. icon.Image and icon.Output are only used to identify the
// icon in errors.
func (c *Converter) Encode(w io.Writer, m image.Image, icon Icon) error {
	if err := icon.validate(); err != nil {
		return err
	}

	a, err := c.build(m, icon)
	if err != nil {
		return err
	}

	if err := artifact.Encode(w, a); err != nil {
		return writeError(icon.name(), err)
	}

	return nil
}

// Convert loads the image named by icon, if any, converts it and writes
// the result to the output file. On error the output file may or may not
// exist and its contents are undefined.
func (c *Converter) Convert(icon Icon) error {
	if err := icon.validate(); err != nil {
		return err
	}

	if icon.Output == "" {
		return &Error{icon.name(), Validation, errors.New("no output file")}
	}

	var m image.Image
	if icon.Image != "" {
		r, err := raster.Load(icon.Image)
		if err != nil {
			return &Error{icon.Image, Load, err}
		}
		m = r
	}

	a, err := c.build(m, icon)
	if err != nil {
		return err
	}

	if err := artifact.WriteFile(icon.Output, a); err != nil {
		return writeError(icon.Output, err)
	}

	return nil
}
