package bitcode

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// Record is a decoded (code, values) entry.
type Record struct {
	Values []uint64
	Code   uint32
	// AbbrevID is the tag the record was read with: UnabbrevRecord or an
	// application abbreviation ID.
	AbbrevID uint32
}

func (*Record) isChunk() {}

// Abbreviated reports whether the record was decoded through an abbreviation.
func (r *Record) Abbreviated() bool {
	return r.AbbrevID >= FirstApplicationAbbrev
}

// Text returns the values interpreted as character codes, or false if any
// value is not a valid code point.
func (r *Record) Text() (string, bool) {
	return charString(r.Values)
}

func (r *Record) String() string {
	return fmt.Sprintf("record code=%d values=%v", r.Code, r.Values)
}

// readUnabbrevRecord reads an UNABBREV_RECORD body: code, count and that
// many values, all VBR6.
func readUnabbrevRecord(c *bitstream.Cursor) (*Record, error) {
	code, err := c.ReadVBR32(unabbrevWidth)
	if err != nil {
		return nil, err
	}
	start := c.TellBit()
	n, err := c.ReadVBR(unabbrevWidth)
	if err != nil {
		return nil, err
	}
	if remaining := c.BitLen() - c.TellBit(); n > remaining/unabbrevWidth {
		return nil, errors.New(errors.PhaseBlock, errors.KindOutOfRange).
			Offset(start).
			Value(n).
			Detail("record with %d operands exceeds remaining %d bits", n, remaining).
			Build()
	}

	rec := &Record{Code: code, Values: make([]uint64, n), AbbrevID: UnabbrevRecord}
	for i := range rec.Values {
		if rec.Values[i], err = c.ReadVBR(unabbrevWidth); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func charString(values []uint64) (string, bool) {
	var b strings.Builder
	b.Grow(len(values))
	for _, v := range values {
		if v > unicode.MaxRune {
			return "", false
		}
		b.WriteRune(rune(v))
	}
	return b.String(), true
}
