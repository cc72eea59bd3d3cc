/*
Package zx7 implements the ZX7 optimal LZ77/LZSS compressor by Einar Saukas.

Compression happens in two phases; Optimize finds the cheapest sequence of
literals and matches measured in output bits, then Compress packs that
sequence into the final byte stream.

The stream starts with a literal byte. Each subsequent element is a flag
bit; 0 is followed by a literal byte, 1 by the Elias gamma coded match
length minus one and the match offset. Offsets up to 128 fit in a single
byte, larger offsets set the top bit of that byte and add four more bits.
A gamma code with sixteen leading zero bits marks the end.
*/
package zx7

import "errors"

const (
	// MaxOffset is the largest supported match offset
	MaxOffset = 2176

	// MaxLen is the longest supported match
	MaxLen = 65536

	shortOffset = 128
)

var (
	errEmpty     = errors.New("zx7: no data")
	errBadParse  = errors.New("zx7: parse does not match data")
	errTruncated = errors.New("zx7: truncated stream")
	errBadOffset = errors.New("zx7: offset out of range")
)

type step struct {
	bits   int
	offset int
	len    int
}

// Optimal is the cheapest parse of a particular input as returned by
// Optimize.
type Optimal struct {
	skip  int
	steps []step
}

// Bits returns the number of bits needed to encode the data excluding the
// end marker.
func (o *Optimal) Bits() int {
	return o.steps[len(o.steps)-1].bits
}

func eliasGammaBits(value int) int {
	bits := 1
	for value > 1 {
		bits += 2
		value >>= 1
	}
	return bits
}

func countBits(offset, length int) int {
	bits := 1 + 8 + eliasGammaBits(length-1)
	if offset > shortOffset {
		bits += 4
	}
	return bits
}

// Optimize computes the optimal parse of data. The first skip bytes are
// treated as already present at the destination; they may be referenced by
// matches but are not encoded. It returns nil if there is nothing to
// encode.
func Optimize(data []byte, skip int) *Optimal {
	if skip < 0 || skip >= len(data) {
		return nil
	}

	steps := make([]step, len(data))

	// Length of the run of matching bytes ending at the current position
	// for each offset
	var run [MaxOffset + 1]int
	for i := 1; i <= skip; i++ {
		for offset := 1; offset <= i && offset <= MaxOffset; offset++ {
			if data[i] == data[i-offset] {
				run[offset]++
			} else {
				run[offset] = 0
			}
		}
	}

	// First byte is always literal
	steps[skip].bits = 8

	for i := skip + 1; i < len(data); i++ {
		steps[i].bits = steps[i-1].bits + 9

		bestLen := 1
		for offset := 1; offset <= i && offset <= MaxOffset; offset++ {
			if data[i] != data[i-offset] {
				run[offset] = 0
				continue
			}
			run[offset]++

			// Nearer offsets are never more expensive so only lengths
			// not already covered by one need considering
			limit := run[offset]
			if limit > i-skip {
				limit = i - skip
			}
			if limit > MaxLen {
				limit = MaxLen
			}
			for l := bestLen + 1; l <= limit; l++ {
				if bits := steps[i-l].bits + countBits(offset, l); bits < steps[i].bits {
					steps[i] = step{bits, offset, l}
				}
			}
			if limit > bestLen {
				bestLen = limit
			}
		}
	}

	return &Optimal{
		skip:  skip,
		steps: steps,
	}
}

type writer struct {
	b       []byte
	mask    byte
	bitByte int
}

func (w *writer) writeByte(v byte) {
	w.b = append(w.b, v)
}

func (w *writer) writeBit(v bool) {
	if w.mask == 0 {
		w.mask = 0x80
		w.bitByte = len(w.b)
		w.writeByte(0)
	}
	if v {
		w.b[w.bitByte] |= w.mask
	}
	w.mask >>= 1
}

func (w *writer) writeEliasGamma(value int) {
	i := 2
	for ; i <= value; i <<= 1 {
		w.writeBit(false)
	}
	for i >>= 1; i > 0; i >>= 1 {
		w.writeBit(value&i != 0)
	}
}

// Compress packs data according to the parse o, which must have been
// computed by Optimize for the same data and skip.
func Compress(o *Optimal, data []byte, skip int) ([]byte, error) {
	if o == nil {
		return nil, errEmpty
	}
	if o.skip != skip || len(o.steps) != len(data) {
		return nil, errBadParse
	}

	// Walk the parse backwards to find where each element starts
	var starts []int
	for i := len(data) - 1; i > skip; {
		starts = append(starts, i)
		if l := o.steps[i].len; l > 0 {
			i -= l
		} else {
			i--
		}
	}

	w := writer{b: make([]byte, 0, (o.Bits()+18+7)/8)}

	// First byte is always literal
	w.writeByte(data[skip])

	for j := len(starts) - 1; j >= 0; j-- {
		i := starts[j]
		s := o.steps[i]
		if s.len == 0 {
			w.writeBit(false)
			w.writeByte(data[i])
			continue
		}

		w.writeBit(true)
		w.writeEliasGamma(s.len - 1)

		offset := s.offset - 1
		if offset < shortOffset {
			w.writeByte(byte(offset))
		} else {
			offset -= shortOffset
			w.writeByte(byte(offset&0x7f) | 0x80)
			for mask := 1024; mask > 127; mask >>= 1 {
				w.writeBit(offset&mask != 0)
			}
		}
	}

	// End marker, a length too long to be real
	w.writeBit(true)
	for i := 0; i < 16; i++ {
		w.writeBit(false)
	}
	w.writeBit(true)

	return w.b, nil
}

type reader struct {
	b     []byte
	pos   int
	mask  byte
	value byte
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, errTruncated
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readBit() (bool, error) {
	r.mask >>= 1
	if r.mask == 0 {
		v, err := r.readByte()
		if err != nil {
			return false, err
		}
		r.mask, r.value = 0x80, v
	}
	return r.value&r.mask != 0, nil
}

// readEliasGamma returns -1 for the end marker
func (r *reader) readEliasGamma() (int, error) {
	zeros := 0
	for {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if bit {
			break
		}
		zeros++
	}
	if zeros > 15 {
		return -1, nil
	}
	value := 1
	for ; zeros > 0; zeros-- {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		value <<= 1
		if bit {
			value |= 1
		}
	}
	return value, nil
}

func (r *reader) readOffset() (int, error) {
	v, err := r.readByte()
	if err != nil {
		return 0, err
	}
	if v < shortOffset {
		return int(v) + 1, nil
	}
	hi := 0
	for i := 0; i < 4; i++ {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		hi <<= 1
		if bit {
			hi |= 1
		}
	}
	return (int(v&0x7f) | hi<<7) + shortOffset + 1, nil
}

// Decompress reverses Compress with a skip of zero.
func Decompress(b []byte) ([]byte, error) {
	r := reader{b: b}

	v, err := r.readByte()
	if err != nil {
		return nil, err
	}
	out := []byte{v}

	for {
		match, err := r.readBit()
		if err != nil {
			return nil, err
		}
		if !match {
			v, err := r.readByte()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			continue
		}

		l, err := r.readEliasGamma()
		if err != nil {
			return nil, err
		}
		if l < 0 {
			return out, nil
		}

		offset, err := r.readOffset()
		if err != nil {
			return nil, err
		}
		if offset > len(out) {
			return nil, errBadOffset
		}
		for i := 0; i <= l; i++ {
			out = append(out, out[len(out)-offset])
		}
	}
}
