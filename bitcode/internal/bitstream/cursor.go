// Package bitstream implements the bit-level cursor used by the bitcode decoder.
//
// Fields are packed LSB-first within successive 32-bit little-endian words.
// The cursor keeps one word of read-ahead; the absolute bit offset is the
// only authoritative position and the cached word is always re-derivable
// from it.
package bitstream

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/pexe/errors"
)

// MaxVBRWidth is the widest chunk a VBR field may declare.
const MaxVBRWidth = 32

// Cursor reads bit fields from an in-memory buffer.
type Cursor struct {
	buf       []byte // zero-padded to a word multiple plus one spare word
	size      int    // unpadded length in bytes
	bitOffset uint64
	word      uint32 // unread bits of the current word, next bit in bit 0
	wordBits  uint   // number of valid bits left in word
}

// New creates a Cursor over data. The data is copied.
func New(data []byte) *Cursor {
	padded := (len(data)+3)&^3 + 4
	buf := make([]byte, padded)
	copy(buf, data)
	return &Cursor{buf: buf, size: len(data)}
}

// Len returns the unpadded length of the buffer in bytes.
func (c *Cursor) Len() int {
	return c.size
}

// BitLen returns the length of the buffer in bits.
func (c *Cursor) BitLen() uint64 {
	return uint64(c.size) * 8
}

// TellBit returns the absolute bit offset.
func (c *Cursor) TellBit() uint64 {
	return c.bitOffset
}

// AtEnd reports whether the byte containing the cursor is the end of the buffer.
func (c *Cursor) AtEnd() bool {
	return c.bitOffset>>3 == uint64(c.size)
}

// Read returns the next n bits, first bit read in the least significant position.
func (c *Cursor) Read(n uint) (uint32, error) {
	if n == 0 || n > 32 {
		return 0, errors.InvalidWidth(c.bitOffset, n, 1, 32)
	}
	if n <= c.wordBits {
		return c.take(n), nil
	}

	saved := *c
	low := c.word
	got := c.wordBits
	c.bitOffset += uint64(got)
	if err := c.fill(); err != nil {
		*c = saved
		return 0, err
	}
	need := n - got
	if need > c.wordBits {
		limit := c.BitLen()
		*c = saved
		return 0, errors.OutOfRange(c.bitOffset+uint64(n), limit)
	}
	return low | c.take(need)<<got, nil
}

// ReadVBR reads a variable bit rate value made of n-bit chunks. The high bit
// of each chunk flags continuation; the low n-1 bits are concatenated
// little-endian into a 64-bit result.
func (c *Cursor) ReadVBR(n uint) (uint64, error) {
	if n < 2 || n > MaxVBRWidth {
		return 0, errors.InvalidWidth(c.bitOffset, n, 2, MaxVBRWidth)
	}
	start := c.bitOffset
	piece, err := c.Read(n)
	if err != nil {
		return 0, err
	}
	hi := uint32(1) << (n - 1)
	if piece&hi == 0 {
		return uint64(piece), nil
	}

	lo := hi - 1
	var result uint64
	var shift uint
	for {
		chunk := uint64(piece & lo)
		if chunk != 0 && (shift >= 64 || chunk>>(64-shift) != 0) {
			return 0, errors.Overflow(start, 64)
		}
		result |= chunk << shift
		if piece&hi == 0 {
			return result, nil
		}
		shift += n - 1
		if piece, err = c.Read(n); err != nil {
			return 0, err
		}
	}
}

// ReadVBR32 reads a VBR value that must fit in 32 bits.
func (c *Cursor) ReadVBR32(n uint) (uint32, error) {
	start := c.bitOffset
	v, err := c.ReadVBR(n)
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, errors.Overflow(start, 32)
	}
	return uint32(v), nil
}

// ReadBytes reads n sequential 8-bit values.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidData(errors.PhaseRead, c.bitOffset, "negative byte count")
	}
	end := c.bitOffset + uint64(n)*8
	if end > c.BitLen() {
		return nil, errors.OutOfRange(end, c.BitLen())
	}
	out := make([]byte, n)
	if c.bitOffset&7 == 0 {
		copy(out, c.buf[c.bitOffset>>3:])
		return out, c.SeekBit(end)
	}
	for i := range out {
		b, err := c.Read(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(b)
	}
	return out, nil
}

// SeekBit moves the cursor to an absolute bit offset. Seeking to the end of
// the buffer is allowed; seeking past it is not.
func (c *Cursor) SeekBit(off uint64) error {
	if off > c.BitLen() {
		return errors.OutOfRange(off, c.BitLen())
	}
	c.bitOffset = off &^ 31
	c.word, c.wordBits = 0, 0
	if c.bitOffset < c.BitLen() {
		c.load()
	}
	if rem := uint(off & 31); rem != 0 {
		c.take(rem)
	}
	return nil
}

// Align32 advances to the next multiple of 32 bits. Alignment padding that
// would run past a buffer whose length is not a word multiple stops at the
// end of the buffer.
func (c *Cursor) Align32() error {
	next := (c.bitOffset + 31) &^ 31
	if next > c.BitLen() {
		next = c.BitLen()
	}
	return c.SeekBit(next)
}

// take consumes n <= wordBits bits from the cached word.
func (c *Cursor) take(n uint) uint32 {
	var v uint32
	if n == 32 {
		v = c.word
		c.word = 0
	} else {
		v = c.word & (uint32(1)<<n - 1)
		c.word >>= n
	}
	c.wordBits -= n
	c.bitOffset += uint64(n)
	return v
}

// fill loads the word at the current, word-aligned offset.
func (c *Cursor) fill() error {
	if c.bitOffset>>3 >= uint64(c.size) {
		return errors.OutOfRange(c.bitOffset, c.BitLen())
	}
	c.load()
	return nil
}

func (c *Cursor) load() {
	byteOffset := int(c.bitOffset >> 3)
	c.word = binary.LittleEndian.Uint32(c.buf[byteOffset:])
	if byteOffset+4 <= c.size {
		c.wordBits = 32
	} else {
		c.wordBits = uint(c.size-byteOffset) * 8
	}
}
