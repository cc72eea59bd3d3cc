/*
Package raster loads images from disk into 8-bit non-premultiplied RGBA
pixel buffers.

PNG, GIF and JPEG are supported via the standard library, BMP, TIFF and
WebP via golang.org/x/image.
*/
package raster

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// Image is a decoded image with its origin at (0, 0).
type Image struct {
	*image.NRGBA

	// Path identifies the image in diagnostics
	Path string
}

var extensions = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// Supported reports whether the extension of name is that of a format Load
// can decode.
func Supported(name string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FromImage converts m, returning it unchanged if it's already suitable.
func FromImage(path string, m image.Image) *Image {
	b := m.Bounds()
	if n, ok := m.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return &Image{n, path}
	}

	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), m, b.Min, draw.Src)

	return &Image{n, path}
}

// Load decodes the named file.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: %s: %w", path, err)
	}

	return FromImage(path, m), nil
}
