/*
Package zx0 implements the ZX0 optimal LZ77/LZSS compressor by Einar Saukas,
version 2 of the format.

Compression happens in two phases; Optimize finds the cheapest chain of
blocks measured in output bits, then Compress packs that chain into the
final byte stream. The stream alternates between runs of literals, matches
reusing the previous offset and matches with a new offset. Lengths are
interlaced Elias gamma codes, the high part of a new offset is an inverted
interlaced Elias gamma code followed by a byte holding the low seven bits.
*/
package zx0

import "errors"

const (
	// MaxOffset is the largest supported match offset
	MaxOffset = 32640

	initialOffset = 1
	progressScale = 50
	endMarker     = 256
	maxGamma      = 1 << 24
)

var (
	errEmpty     = errors.New("zx0: no data")
	errBadParse  = errors.New("zx0: parse does not match data")
	errTruncated = errors.New("zx0: truncated stream")
	errBadOffset = errors.New("zx0: offset out of range")
	errBadGamma  = errors.New("zx0: invalid length")
)

// Block is one element of an optimal parse as returned by Optimize. Blocks
// are linked back towards the start of the data.
type Block struct {
	chain  *Block
	bits   int
	index  int
	offset int
}

// Bits returns the number of bits needed to encode the data up to and
// including the block, excluding the end marker.
func (b *Block) Bits() int {
	return b.bits
}

func offsetCeiling(index, limit int) int {
	switch {
	case index > limit:
		return limit
	case index < initialOffset:
		return initialOffset
	default:
		return index
	}
}

func eliasGammaBits(value int) int {
	bits := 1
	for value >>= 1; value > 0; value >>= 1 {
		bits += 2
	}
	return bits
}

// Optimize computes the optimal parse of data, searching offsets up to
// offsetLimit. The first skip bytes are treated as already present at the
// destination. If progress is not nil it is called periodically. It
// returns nil if there is nothing to encode.
func Optimize(data []byte, skip, offsetLimit int, progress func()) *Block {
	n := len(data)
	if skip < 0 || skip >= n {
		return nil
	}
	if offsetLimit < 1 || offsetLimit > MaxOffset {
		offsetLimit = MaxOffset
	}

	maxOffset := offsetCeiling(n-1, offsetLimit)

	lastLiteral := make([]*Block, maxOffset+1)
	lastMatch := make([]*Block, maxOffset+1)
	optimal := make([]*Block, n)
	matchLength := make([]int, maxOffset+1)
	bestLength := make([]int, n)
	if n > 2 {
		bestLength[2] = 2
	}

	// Fake block the first literals are chained to
	lastMatch[initialOffset] = &Block{
		bits:   -1,
		index:  skip - 1,
		offset: initialOffset,
	}

	better := func(index int, b *Block) {
		if optimal[index] == nil || optimal[index].bits > b.bits {
			optimal[index] = b
		}
	}

	dots := 2
	for index := skip; index < n; index++ {
		bestLengthSize := 2
		maxOffset = offsetCeiling(index, offsetLimit)
		for offset := 1; offset <= maxOffset; offset++ {
			if index != skip && index >= offset && data[index] == data[index-offset] {
				// Copy from last offset
				if ll := lastLiteral[offset]; ll != nil {
					length := index - ll.index
					lastMatch[offset] = &Block{ll, ll.bits + 1 + eliasGammaBits(length), index, offset}
					better(index, lastMatch[offset])
				}

				// Copy from new offset
				matchLength[offset]++
				if matchLength[offset] > 1 {
					if bestLengthSize < matchLength[offset] {
						bits := optimal[index-bestLength[bestLengthSize]].bits + eliasGammaBits(bestLength[bestLengthSize]-1)
						for bestLengthSize < matchLength[offset] {
							bestLengthSize++
							bits2 := optimal[index-bestLengthSize].bits + eliasGammaBits(bestLengthSize-1)
							if bits2 <= bits {
								bestLength[bestLengthSize] = bestLengthSize
								bits = bits2
							} else {
								bestLength[bestLengthSize] = bestLength[bestLengthSize-1]
							}
						}
					}

					length := bestLength[matchLength[offset]]
					bits := optimal[index-length].bits + 8 + eliasGammaBits((offset-1)/128+1) + eliasGammaBits(length-1)
					if lm := lastMatch[offset]; lm == nil || lm.index != index || lm.bits > bits {
						lastMatch[offset] = &Block{optimal[index-length], bits, index, offset}
						better(index, lastMatch[offset])
					}
				}
			} else {
				// Copy literals
				matchLength[offset] = 0
				if lm := lastMatch[offset]; lm != nil {
					length := index - lm.index
					lastLiteral[offset] = &Block{lm, lm.bits + 1 + eliasGammaBits(length) + length*8, index, 0}
					better(index, lastLiteral[offset])
				}
			}
		}

		if progress != nil && index*progressScale/n > dots {
			progress()
			dots++
		}
	}

	return optimal[n-1]
}

type writer struct {
	b         []byte
	mask      byte
	bitByte   int
	backtrack bool
}

func (w *writer) writeByte(v byte) {
	w.b = append(w.b, v)
}

func (w *writer) writeBit(v bool) {
	// The first bit after an offset byte lives in its lowest bit
	if w.backtrack {
		if v && len(w.b) > 0 {
			w.b[len(w.b)-1] |= 1
		}
		w.backtrack = false
		return
	}
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

func (w *writer) writeInterlacedEliasGamma(value int, invert bool) {
	i := 2
	for i <= value {
		i <<= 1
	}
	i >>= 1
	for i >>= 1; i > 0; i >>= 1 {
		w.writeBit(false)
		w.writeBit((value&i != 0) != invert)
	}
	w.writeBit(true)
}

// Compress packs data according to the parse ending at b, which must have
// been computed by Optimize for the same data and skip.
func Compress(b *Block, data []byte, skip int) ([]byte, error) {
	if b == nil {
		return nil, errEmpty
	}
	if b.index != len(data)-1 {
		return nil, errBadParse
	}

	var blocks []*Block
	for o := b; o != nil; o = o.chain {
		blocks = append(blocks, o)
	}
	if blocks[len(blocks)-1].index != skip-1 {
		return nil, errBadParse
	}

	// The indicator bit of the first block is implied
	w := writer{
		b:         make([]byte, 0, (b.bits+25)/8),
		backtrack: true,
	}

	lastOffset := initialOffset
	input := skip
	prev := blocks[len(blocks)-1]
	for j := len(blocks) - 2; j >= 0; j-- {
		o := blocks[j]
		length := o.index - prev.index

		switch {
		case o.offset == 0:
			w.writeBit(false)
			w.writeInterlacedEliasGamma(length, false)
			for _, v := range data[input : input+length] {
				w.writeByte(v)
			}
		case o.offset == lastOffset && prev.offset == 0:
			w.writeBit(false)
			w.writeInterlacedEliasGamma(length, false)
		default:
			w.writeBit(true)
			w.writeInterlacedEliasGamma((o.offset-1)/128+1, true)
			w.writeByte(byte(127-(o.offset-1)%128) << 1)
			w.backtrack = true
			w.writeInterlacedEliasGamma(length-1, false)
			lastOffset = o.offset
		}

		input += length
		prev = o
	}

	w.writeBit(true)
	w.writeInterlacedEliasGamma(endMarker, true)

	return w.b, nil
}

type reader struct {
	b         []byte
	pos       int
	mask      byte
	value     byte
	last      byte
	backtrack bool
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, errTruncated
	}
	r.last = r.b[r.pos]
	r.pos++
	return r.last, nil
}

func (r *reader) readBit() (bool, error) {
	if r.backtrack {
		r.backtrack = false
		return r.last&1 != 0, nil
	}
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

func (r *reader) readInterlacedEliasGamma(invert bool) (int, error) {
	value := 1
	for {
		stop, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if stop {
			return value, nil
		}
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		value <<= 1
		if bit != invert {
			value |= 1
		}
		if value > maxGamma {
			return 0, errBadGamma
		}
	}
}

func copyMatch(out []byte, offset, length int) ([]byte, error) {
	if offset < 1 || offset > len(out) {
		return nil, errBadOffset
	}
	for i := 0; i < length; i++ {
		out = append(out, out[len(out)-offset])
	}
	return out, nil
}

const (
	stateLiterals = iota
	stateLastOffset
	stateNewOffset
)

// Decompress reverses Compress with a skip of zero.
func Decompress(b []byte) ([]byte, error) {
	r := reader{b: b}

	var out []byte
	lastOffset := initialOffset
	state := stateLiterals

	for {
		switch state {
		case stateLiterals:
			length, err := r.readInterlacedEliasGamma(false)
			if err != nil {
				return nil, err
			}
			for i := 0; i < length; i++ {
				v, err := r.readByte()
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			state = stateLastOffset
		case stateLastOffset:
			length, err := r.readInterlacedEliasGamma(false)
			if err != nil {
				return nil, err
			}
			if out, err = copyMatch(out, lastOffset, length); err != nil {
				return nil, err
			}
			state = stateLiterals
		case stateNewOffset:
			msb, err := r.readInterlacedEliasGamma(true)
			if err != nil {
				return nil, err
			}
			if msb == endMarker {
				return out, nil
			}
			lsb, err := r.readByte()
			if err != nil {
				return nil, err
			}
			lastOffset = msb*128 - int(lsb>>1)
			r.backtrack = true
			length, err := r.readInterlacedEliasGamma(false)
			if err != nil {
				return nil, err
			}
			if out, err = copyMatch(out, lastOffset, length+1); err != nil {
				return nil, err
			}
			state = stateLiterals
		}

		// Every block is followed by a bit choosing between a new offset
		// and whatever the current state implies
		bit, err := r.readBit()
		if err != nil {
			return nil, err
		}
		if bit {
			state = stateNewOffset
		}
	}
}
