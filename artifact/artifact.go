/*
Package artifact implements the textual icon formats consumed by the
toolchain's assembler and by ICE compiled programs.

The assembly format places the icon in an ".icon" section that starts with
a jump over the data. A tag byte of 1 is followed by the width, the height
and one byte per pixel, a tag byte of 2 means there is no icon. A NUL
terminated description follows in both cases.

The hex format is a single quoted string of the tag byte, width, height and
pixels, each written as two hex digits. It has no way of saying there is no
icon so nothing is written at all in that case, neither is the description.

Every byte is written as exactly two uppercase hex digits; the consumers
rely on it.
*/
package artifact

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Format selects the textual container.
type Format int

// The zero value is deliberately not a usable format.
const (
	Invalid Format = iota
	Assembly
	Hex
)

const (
	tagIcon   = 0x01
	tagNoIcon = 0x02

	// MaxDimension is the largest width or height that fits the header
	MaxDimension = 0xff

	sectionName      = ".icon"
	labelIcon        = "___icon"
	labelDescription = "___description"
	labelInit        = "___prgm_init"
)

var (
	// ErrFormat is returned for an unrecognised Format
	ErrFormat = errors.New("artifact: invalid format")

	// ErrIcon is returned when the icon header can't describe the icon
	ErrIcon = errors.New("artifact: invalid icon")

	// ErrDescription is returned when the description can't be written as
	// an assembler string literal
	ErrDescription = errors.New("artifact: invalid description")

	errMalformed = errors.New("artifact: malformed input")
)

var formats = []struct {
	format Format
	name   string
	ext    string
}{
	{Assembly, "asm", ".asm"},
	{Hex, "ice", ".txt"},
}

func (f Format) String() string {
	for _, v := range formats {
		if v.format == f {
			return v.name
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the conventional file extension for f.
func (f Format) Ext() string {
	for _, v := range formats {
		if v.format == f {
			return v.ext
		}
	}
	return ""
}

// ParseFormat returns the Format named by s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for _, v := range formats {
		if strings.EqualFold(s, v.name) {
			return v.format, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrFormat, s)
}

// Icon is the palette indexed pixel data. Data is normally Width*Height
// bytes in row-major order but may instead hold a compressed stream.
type Icon struct {
	Width  int
	Height int
	Data   []byte
}

// Artifact is everything written to a single output file. A nil Icon means
// there is no icon.
type Artifact struct {
	Format      Format
	Description string
	Icon        *Icon
}

func (a *Artifact) validate() error {
	switch a.Format {
	case Assembly, Hex:
	default:
		return fmt.Errorf("%w: %v", ErrFormat, a.Format)
	}

	if i := a.Icon; i != nil {
		if i.Width < 1 || i.Width > MaxDimension || i.Height < 1 || i.Height > MaxDimension {
			return fmt.Errorf("%w: %dx%d", ErrIcon, i.Width, i.Height)
		}
		if len(i.Data) == 0 {
			return fmt.Errorf("%w: no data", ErrIcon)
		}
	}

	for _, r := range a.Description {
		if r == '"' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrDescription, a.Description)
		}
	}

	return nil
}
