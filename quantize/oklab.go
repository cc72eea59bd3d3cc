package quantize

import "math"

// lab is a color in the Oklab space, see
// https://bottosson.github.io/posts/oklab/
type lab struct {
	l, a, b float64
}

// Linear light value for each possible 8-bit sRGB channel value
var linear = func() (t [256]float64) {
	for i := range t {
		x := float64(i) / 255
		if x >= 0.04045 {
			t[i] = math.Pow((x+0.055)/1.055, 2.4)
		} else {
			t[i] = x / 12.92
		}
	}
	return
}()

func toLab(r, g, b uint8) lab {
	lr, lg, lb := linear[r], linear[g], linear[b]

	l := math.Cbrt(0.4122214708*lr + 0.5363325363*lg + 0.0514459929*lb)
	m := math.Cbrt(0.2119034982*lr + 0.6806995451*lg + 0.1073969566*lb)
	s := math.Cbrt(0.0883024619*lr + 0.2817188376*lg + 0.6299787005*lb)

	return lab{
		l: 0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		a: 1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		b: 0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
	}
}

func (c lab) distance(o lab) float64 {
	dl := c.l - o.l
	da := c.a - o.a
	db := c.b - o.b
	return dl*dl + da*da + db*db
}
