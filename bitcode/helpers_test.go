package bitcode

import (
	"testing"

	"go.uber.org/zap"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
)

// bits converts a string of '0' and '1' into bytes, first character in the
// lowest bit. Any other character, including parentheses used to mark
// alignment padding, is skipped; the zeros inside them still count.
func bits(s string) []byte {
	var w streamWriter
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

func cursor(s string) *bitstream.Cursor {
	return bitstream.New(bits(s))
}

func newTestDecoder(data []byte) *decoder {
	return &decoder{
		c:    bitstream.New(data),
		reg:       newRegistry(zap.NewNop()),
		log:       zap.NewNop(),
		opts:      Options{MaxDepth: DefaultMaxDepth},
		maxValues: DefaultMaxValues,
	}
}

// streamWriter builds bitstreams for tests. It tracks the abbreviation
// width of each open block and patches the declared word count on end.
type streamWriter struct {
	buf    []byte
	nbit   uint64
	widths []uint
	starts []uint64 // bit offset of each open block body
}

func (w *streamWriter) write(v uint64, n uint) *streamWriter {
	for i := uint(0); i < n; i++ {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 != 0 {
			w.buf[len(w.buf)-1] |= 1 << (w.nbit % 8)
		}
		w.nbit++
	}
	return w
}

func (w *streamWriter) vbr(v uint64, n uint) *streamWriter {
	hi := uint64(1) << (n - 1)
	for v >= hi {
		w.write(v&(hi-1)|hi, n)
		v >>= n - 1
	}
	return w.write(v, n)
}

func (w *streamWriter) align32() *streamWriter {
	for w.nbit%32 != 0 {
		w.write(0, 1)
	}
	return w
}

func (w *streamWriter) width() uint {
	if len(w.widths) == 0 {
		return topLevelCodeLen
	}
	return w.widths[len(w.widths)-1]
}

func (w *streamWriter) tag(t uint64) *streamWriter {
	return w.write(t, w.width())
}

func (w *streamWriter) header(fields ...HeaderField) *streamWriter {
	for i := 0; i < len(Magic); i++ {
		w.write(uint64(Magic[i]), 8)
	}
	w.write(uint64(len(fields)), 16)
	w.write(uint64(len(fields))*8, 16)
	for _, f := range fields {
		w.write(uint64(f.Type), 4)
		w.write(uint64(f.ID), 4)
		w.write(0, 8)
		switch f.Type {
		case FieldBytes:
			w.write(uint64(len(f.Bytes)), 16)
			for _, b := range f.Bytes {
				w.write(uint64(b), 8)
			}
		default:
			w.write(4, 16)
			w.write(uint64(f.Scalar), 32)
		}
	}
	return w
}

func (w *streamWriter) enter(id uint64, codeLen uint) *streamWriter {
	w.tag(uint64(EnterSubblock))
	w.vbr(id, blockIDWidth)
	w.vbr(uint64(codeLen), codeLenWidth)
	w.align32()
	w.write(0, 32)
	w.widths = append(w.widths, codeLen)
	w.starts = append(w.starts, w.nbit)
	return w
}

func (w *streamWriter) end() *streamWriter {
	w.tag(uint64(EndBlock))
	w.align32()
	start := w.starts[len(w.starts)-1]
	w.patch32(start-32, uint32((w.nbit-start)/32))
	w.widths = w.widths[:len(w.widths)-1]
	w.starts = w.starts[:len(w.starts)-1]
	return w
}

func (w *streamWriter) patch32(at uint64, v uint32) {
	for i := uint64(0); i < 32; i++ {
		pos := at + i
		mask := byte(1) << (pos % 8)
		if v>>i&1 != 0 {
			w.buf[pos/8] |= mask
		} else {
			w.buf[pos/8] &^= mask
		}
	}
}

func (w *streamWriter) unabbrev(code uint64, values ...uint64) *streamWriter {
	w.tag(uint64(UnabbrevRecord))
	w.vbr(code, unabbrevWidth)
	w.vbr(uint64(len(values)), unabbrevWidth)
	for _, v := range values {
		w.vbr(v, unabbrevWidth)
	}
	return w
}

// define writes a DEFINE_ABBREV entry. declared is the operand count as it
// appears in the stream, counting array elements separately.
func (w *streamWriter) define(declared uint64, ops ...func(*streamWriter)) *streamWriter {
	w.tag(uint64(DefineAbbrev))
	w.vbr(declared, abbrevCountWidth)
	for _, op := range ops {
		op(w)
	}
	return w
}

func opLiteral(v uint64) func(*streamWriter) {
	return func(w *streamWriter) { w.write(1, 1).vbr(v, literalWidth) }
}

func opFixed(width uint64) func(*streamWriter) {
	return func(w *streamWriter) { w.write(0, 1).write(encodingFixed, 3).vbr(width, operandWidth) }
}

func opVBR(width uint64) func(*streamWriter) {
	return func(w *streamWriter) { w.write(0, 1).write(encodingVBR, 3).vbr(width, operandWidth) }
}

func opArray() func(*streamWriter) {
	return func(w *streamWriter) { w.write(0, 1).write(encodingArray, 3) }
}

func opChar6() func(*streamWriter) {
	return func(w *streamWriter) { w.write(0, 1).write(encodingChar6, 3) }
}

func opBlob() func(*streamWriter) {
	return func(w *streamWriter) { w.write(0, 1).write(encodingBlob, 3) }
}

func (w *streamWriter) bytes() []byte {
	return w.buf
}

func mustDecode(t *testing.T, data []byte, opts ...Option) *Document {
	t.Helper()
	doc, err := Decode(data, opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}
