package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette(t *testing.T) {
	p := Palette()
	assert.Len(t, p, Len)
	assert.Equal(t, color.RGBA{0x00, 0x00, 0x00, 0xff}, p[0])
	assert.Equal(t, color.RGBA{0x00, 0xa2, 0x29, 0xff}, p[5])
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, p[255])

	// Modifying the copy must leave the package untouched
	p[0] = color.RGBA{0x12, 0x34, 0x56, 0xff}
	assert.Equal(t, color.RGBA{0x00, 0x00, 0x00, 0xff}, Color(0))
}

func TestUnique(t *testing.T) {
	seen := make(map[[3]uint8]int)
	for i := 0; i < Len; i++ {
		r, g, b := RGB(uint8(i))
		k := [3]uint8{r, g, b}
		if j, ok := seen[k]; ok {
			t.Errorf("entry %d duplicates entry %d", i, j)
		}
		seen[k] = i
	}
}
