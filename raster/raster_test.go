package raster

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func create(t *testing.T, name string, m image.Image, encode func(io.Writer, image.Image) error) {
	t.Helper()
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, m))
}

func testImage() *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, 3, 2))
	m.Set(0, 0, color.RGBA{0xff, 0x00, 0x00, 0xff})
	m.Set(1, 0, color.RGBA{0x00, 0xff, 0x00, 0xff})
	m.Set(2, 0, color.RGBA{0x00, 0x00, 0xff, 0xff})
	m.Set(0, 1, color.RGBA{0x10, 0x20, 0x30, 0xff})
	m.Set(1, 1, color.RGBA{0xff, 0xff, 0xff, 0xff})
	m.Set(2, 1, color.RGBA{0x00, 0x00, 0x00, 0xff})
	return m
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	tables := []struct {
		name   string
		encode func(io.Writer, image.Image) error
	}{
		{"icon.png", png.Encode},
		{"icon.bmp", bmp.Encode},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			name := filepath.Join(dir, table.name)
			create(t, name, testImage(), table.encode)

			m, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, name, m.Path)
			assert.Equal(t, image.Rect(0, 0, 3, 2), m.Bounds())
			assert.Len(t, m.Pix, 3*2*4)
			assert.Equal(t, color.NRGBA{0x00, 0xff, 0x00, 0xff}, m.NRGBAAt(1, 0))
			assert.Equal(t, color.NRGBA{0x10, 0x20, 0x30, 0xff}, m.NRGBAAt(0, 1))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.True(t, os.IsNotExist(errors.Unwrap(err)) || os.IsNotExist(err))

	name := filepath.Join(dir, "garbage.png")
	require.NoError(t, ioutil.WriteFile(name, []byte("not an image"), 0644))
	_, err = Load(name)
	require.Error(t, err)
	assert.True(t, errors.Is(err, image.ErrFormat))
	assert.Contains(t, err.Error(), name)
}

func TestFromImage(t *testing.T) {
	n := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, n, FromImage("a", n).NRGBA)

	// Non-zero origin gets moved
	sub := testImage().SubImage(image.Rect(1, 1, 3, 2))
	m := FromImage("b", sub)
	assert.Equal(t, image.Rect(0, 0, 2, 1), m.Bounds())
	assert.Equal(t, color.NRGBA{0xff, 0xff, 0xff, 0xff}, m.NRGBAAt(0, 0))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("icon.PNG"))
	assert.True(t, Supported("dir/icon.webp"))
	assert.False(t, Supported("icon.asm"))
	assert.False(t, Supported("png"))
}
