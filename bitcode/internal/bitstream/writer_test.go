package bitstream

import "strings"

// bitWriter packs fields LSB-first for building test streams.
type bitWriter struct {
	buf  []byte
	nbit uint64
}

func (w *bitWriter) write(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[len(w.buf)-1] |= 1 << (w.nbit % 8)
		}
		w.nbit++
	}
}

func (w *bitWriter) writeVBR(v uint64, n uint) {
	hi := uint64(1) << (n - 1)
	for v >= hi {
		w.write(v&(hi-1)|hi, n)
		v >>= n - 1
	}
	w.write(v, n)
}

func (w *bitWriter) bytes() []byte {
	return w.buf
}

// bits converts a string of '0' and '1' into bytes, first character in the
// lowest bit. Any other character is skipped.
func bits(s string) []byte {
	var w bitWriter
	for _, r := range s {
		switch r {
		case '0':
			w.write(0, 1)
		case '1':
			w.write(1, 1)
		}
	}
	return w.bytes()
}

// bin parses a string of bits with the least significant bit first.
func bin(s string) uint64 {
	var v uint64
	s = strings.ReplaceAll(s, " ", "")
	for i := len(s) - 1; i >= 0; i-- {
		v = v<<1 | uint64(s[i]-'0')
	}
	return v
}
