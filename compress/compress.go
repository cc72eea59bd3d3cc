/*
Package compress selects between the supported compression backends.

There are exactly three strategies; None passes the data through untouched
whereas ZX7 and ZX0 run the respective optimal parse compressor.
*/
package compress

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bodgit/convicon/compress/zx0"
	"github.com/bodgit/convicon/compress/zx7"
)

// Mode selects a compression strategy.
type Mode int

// The zero value is deliberately not a usable strategy.
const (
	Invalid Mode = iota
	None
	ZX7
	ZX0
)

// Effort is the furthest back ZX0 will look for a match.
const Effort = 2000

var (
	// ErrInvalidMode is returned for an unrecognised Mode
	ErrInvalidMode = errors.New("compress: invalid mode")

	// ErrEmpty is returned when asking a backend to compress nothing
	ErrEmpty = errors.New("compress: no data")

	// ErrFailed is returned when a backend produces no result
	ErrFailed = errors.New("compress: backend failed")
)

var modeNames = map[Mode]string{
	None: "none",
	ZX7:  "zx7",
	ZX0:  "zx0",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the Mode named by s, ignoring case.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func compressZX7(data []byte) ([]byte, error) {
	o := zx7.Optimize(data, 0)
	if o == nil {
		return nil, fmt.Errorf("%w: could not optimize zx7", ErrFailed)
	}

	b, err := zx7.Compress(o, data, 0)
	if err != nil || b == nil {
		return nil, fmt.Errorf("%w: could not compress zx7", ErrFailed)
	}

	return b, nil
}

func compressZX0(data []byte, progress func()) ([]byte, error) {
	o := zx0.Optimize(data, 0, Effort, progress)
	if o == nil {
		return nil, fmt.Errorf("%w: could not optimize zx0", ErrFailed)
	}

	b, err := zx0.Compress(o, data, 0)
	if err != nil || b == nil {
		return nil, fmt.Errorf("%w: could not compress zx0", ErrFailed)
	}

	return b, nil
}

// Compress returns data compressed with mode. None returns data as is,
// including nil or empty slices. progress is only used by ZX0 and may be
// nil.
func Compress(data []byte, mode Mode, progress func()) ([]byte, error) {
	switch mode {
	case None:
		return data, nil
	case ZX7, ZX0:
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrEmpty, mode)
	}

	if mode == ZX7 {
		return compressZX7(data)
	}
	return compressZX0(data, progress)
}
