package convicon

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/bodgit/convicon/artifact"
	"github.com/bodgit/convicon/compress"
	"github.com/bodgit/convicon/compress/zx0"
	"github.com/bodgit/convicon/compress/zx7"
	"github.com/bodgit/convicon/palette"
	"github.com/bodgit/convicon/quantize"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.Set(0, 0, palette.Color(0))
	m.Set(1, 0, palette.Color(5))
	return m
}

func iconImage(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, palette.Color(uint8((x/4+y/4)*17)))
		}
	}
	return m
}

func writePNG(t *testing.T, name string, m image.Image) {
	t.Helper()
	f, err := os.Create(name)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, m))
}

var hexLiteral = regexp.MustCompile(`\$([0-9A-F]{2})`)

// parseAssembly collects every hex literal in the icon section
func parseAssembly(t *testing.T, s string) []byte {
	t.Helper()
	var b []byte
	for _, m := range hexLiteral.FindAllStringSubmatch(s, -1) {
		v, err := strconv.ParseUint(m[1], 16, 8)
		require.NoError(t, err)
		b = append(b, byte(v))
	}
	return b
}

func TestEncodeScenario(t *testing.T) {
	var b bytes.Buffer
	err := New(nil).Encode(&b, scenarioImage(), Icon{
		Image:       "scenario.png",
		Format:      artifact.Assembly,
		Compression: compress.None,
	})
	require.NoError(t, err)

	want := "\tsection .icon\n" +
		"\n" +
		"\tjp\t___prgm_init\n" +
		"\tdb\t$01\n" +
		"\tpublic ___icon\n" +
		"___icon:\n" +
		"\tdb\t$02, $01\n" +
		"\tdb\t$00, $05\n" +
		"\tpublic ___description\n" +
		"___description:\n" +
		"\tdb\t0\n" +
		"___prgm_init:\n"
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []byte{0x01, 0x02, 0x01, 0x00, 0x05}, parseAssembly(t, b.String()))
}

func TestEncodeReparse(t *testing.T) {
	m := iconImage(16, 16)
	pm, err := quantize.Quantize(m, palette.Palette())
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, New(nil).Encode(&b, m, Icon{
		Format:      artifact.Assembly,
		Compression: compress.None,
		Description: "Reparse",
	}))

	got := parseAssembly(t, b.String())
	require.Len(t, got, 3+16*16)
	assert.Equal(t, []byte{0x01, 16, 16}, got[:3])
	assert.Equal(t, pm.Pix, got[3:])
}

func TestEncodeNoImage(t *testing.T) {
	c := New(nil)

	var b bytes.Buffer
	require.NoError(t, c.Encode(&b, nil, Icon{Format: artifact.Hex, Compression: compress.None, Description: "x"}))
	assert.Zero(t, b.Len())

	b.Reset()
	require.NoError(t, c.Encode(&b, nil, Icon{Format: artifact.Assembly, Compression: compress.None}))
	assert.Equal(t, []byte{0x02}, parseAssembly(t, b.String()))
}

func TestEncodeHex(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, New(nil).Encode(&b, scenarioImage(), Icon{Format: artifact.Hex, Compression: compress.None}))
	assert.Equal(t, "\"0102010005\"\n", b.String())
}

func TestEncodeCompressed(t *testing.T) {
	m := iconImage(16, 16)
	pm, err := quantize.Quantize(m, palette.Palette())
	require.NoError(t, err)

	tables := []struct {
		mode       compress.Mode
		decompress func([]byte) ([]byte, error)
	}{
		{compress.ZX7, zx7.Decompress},
		{compress.ZX0, zx0.Decompress},
	}

	for _, table := range tables {
		t.Run(table.mode.String(), func(t *testing.T) {
			var logged bytes.Buffer
			c := New(log.New(&logged, "", 0))

			var b bytes.Buffer
			require.NoError(t, c.Encode(&b, m, Icon{Format: artifact.Hex, Compression: table.mode}))

			a, err := artifact.Decode(&b, artifact.Hex)
			require.NoError(t, err)
			assert.Equal(t, 16, a.Icon.Width)
			assert.Equal(t, 16, a.Icon.Height)
			assert.True(t, len(a.Icon.Data) < len(pm.Pix))

			data, err := table.decompress(a.Icon.Data)
			require.NoError(t, err)
			assert.Equal(t, pm.Pix, data)

			if table.mode == compress.ZX0 {
				assert.Regexp(t, `^Compressing \[\.*\]\n$`, logged.String())
			} else {
				assert.Empty(t, logged.String())
			}
		})
	}
}

func TestEncodeProgressOff(t *testing.T) {
	var logged bytes.Buffer
	c := New(log.New(&logged, "", 0))
	c.SetProgress(false)

	var b bytes.Buffer
	require.NoError(t, c.Encode(&b, iconImage(16, 16), Icon{
		Format:      artifact.Hex,
		Compression: compress.ZX0,
	}))
	assert.NotZero(t, b.Len())
	assert.Empty(t, logged.String())
}

func TestEncodeErrors(t *testing.T) {
	tables := []struct {
		name   string
		image  image.Image
		icon   Icon
		kind   Kind
		target error
	}{
		{
			"width",
			iconImage(256, 16),
			Icon{Image: "wide.png", Format: artifact.Assembly, Compression: compress.None},
			Validation,
			quantize.ErrDimension,
		},
		{
			"height",
			iconImage(16, 256),
			Icon{Image: "tall.png", Format: artifact.Hex, Compression: compress.None},
			Validation,
			quantize.ErrDimension,
		},
		{
			"format",
			iconImage(16, 16),
			Icon{Image: "icon.png", Compression: compress.None},
			Validation,
			artifact.ErrFormat,
		},
		{
			"compression",
			nil,
			Icon{Image: "icon.png", Format: artifact.Assembly},
			Validation,
			compress.ErrInvalidMode,
		},
		{
			"description",
			nil,
			Icon{Output: "icon.asm", Format: artifact.Assembly, Compression: compress.None, Description: "\"quoted\""},
			Validation,
			artifact.ErrDescription,
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			var b bytes.Buffer
			err := New(nil).Encode(&b, table.image, table.icon)
			require.Error(t, err)

			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, table.kind, e.Kind)
			assert.Equal(t, table.icon.name(), e.Path)
			assert.True(t, errors.Is(err, table.target))
			assert.Contains(t, err.Error(), e.Path)
			assert.Zero(t, b.Len())
		})
	}
}

func TestEncodeDimensionNamed(t *testing.T) {
	err := New(nil).Encode(ioutil.Discard, iconImage(16, 256), Icon{Image: "tall.png", Format: artifact.Assembly, Compression: compress.None})
	var de *quantize.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "height", de.Dimension)
	assert.Equal(t, 256, de.Value)
}

func TestAdvisory(t *testing.T) {
	var logged bytes.Buffer
	c := New(log.New(&logged, "", 0))

	require.NoError(t, c.Encode(ioutil.Discard, iconImage(16, 16), Icon{Image: "ok.png", Format: artifact.Assembly, Compression: compress.None}))
	assert.Empty(t, logged.String())

	require.NoError(t, c.Encode(ioutil.Discard, iconImage(32, 8), Icon{Image: "big.png", Format: artifact.Assembly, Compression: compress.None}))
	assert.Equal(t, "Icon \"big.png\" is not 16x16 pixels\n", logged.String())
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()

	name := filepath.Join(dir, "icon.png")
	writePNG(t, name, scenarioImage())

	output := filepath.Join(dir, "icon.txt")
	require.NoError(t, New(nil).Convert(Icon{
		Image:       name,
		Output:      output,
		Format:      artifact.Hex,
		Compression: compress.None,
	}))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "\"0102010005\"\n", string(b))
}

func TestConvertNoImage(t *testing.T) {
	dir := t.TempDir()

	output := filepath.Join(dir, "icon.txt")
	require.NoError(t, New(nil).Convert(Icon{
		Output:      output,
		Format:      artifact.Hex,
		Compression: compress.ZX0,
		Description: "No icon",
	}))

	b, err := ioutil.ReadFile(output)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, ioutil.WriteFile(garbage, []byte("garbage"), 0644))

	good := filepath.Join(dir, "good.png")
	writePNG(t, good, iconImage(16, 16))

	tables := []struct {
		name string
		icon Icon
		kind Kind
		path string
	}{
		{
			"missing image",
			Icon{Image: filepath.Join(dir, "missing.png"), Output: filepath.Join(dir, "out.asm"), Format: artifact.Assembly, Compression: compress.None},
			Load,
			filepath.Join(dir, "missing.png"),
		},
		{
			"undecodable image",
			Icon{Image: garbage, Output: filepath.Join(dir, "out.asm"), Format: artifact.Assembly, Compression: compress.None},
			Load,
			garbage,
		},
		{
			"unwritable output",
			Icon{Image: good, Output: filepath.Join(dir, "missing", "out.asm"), Format: artifact.Assembly, Compression: compress.None},
			IO,
			filepath.Join(dir, "missing", "out.asm"),
		},
		{
			"no output",
			Icon{Image: good, Format: artifact.Assembly, Compression: compress.None},
			Validation,
			good,
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			err := New(nil).Convert(table.icon)
			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, table.kind, e.Kind)
			assert.Equal(t, table.path, e.Path)
		})
	}

	_, err := os.Stat(filepath.Join(dir, "out.asm"))
	assert.True(t, os.IsNotExist(err))
}

func TestErrorString(t *testing.T) {
	e := &Error{"icon.png", Validation, &quantize.DimensionError{Dimension: "width", Value: 300}}
	assert.Equal(t, "validation error: \"icon.png\": width is 300, maximum supported is 255", e.Error())
	assert.Equal(t, "Kind(0)", Kind(0).String())
}
