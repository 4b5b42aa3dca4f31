package bitcode

import (
	"math"
	"strings"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// Abbreviation describes how to decode one record shape.
//
// An array operand owns its element encoding, so Ops is shorter than the
// operand count declared in the stream: each array occupies two declared
// slots but one entry here.
type Abbreviation struct {
	Ops []Operand
}

func (a Abbreviation) String() string {
	parts := make([]string, len(a.Ops))
	for i, op := range a.Ops {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// readAbbreviation reads the body of a DEFINE_ABBREV entry.
func readAbbreviation(c *bitstream.Cursor) (Abbreviation, error) {
	start := c.TellBit()
	declared, err := c.ReadVBR32(abbrevCountWidth)
	if err != nil {
		return Abbreviation{}, err
	}
	// Every operand takes at least four bits to define.
	if remaining := c.BitLen() - c.TellBit(); uint64(declared)*4 > remaining {
		return Abbreviation{}, errors.New(errors.PhaseAbbrev, errors.KindOutOfRange).
			Offset(start).
			Value(declared).
			Detail("%d operands cannot fit in remaining %d bits", declared, remaining).
			Build()
	}

	a := Abbreviation{Ops: make([]Operand, 0, declared)}
	for slot := uint32(0); slot < declared; {
		op, err := readOperand(c)
		if err != nil {
			return Abbreviation{}, err
		}
		a.Ops = append(a.Ops, op)
		// An array may close the list even when its element slot runs
		// past the declared count.
		if op.Kind == OpArray {
			slot += 2
		} else {
			slot++
		}
	}
	return a, nil
}

// decodeRecord replays the abbreviation. The first decoded value is the
// record code and the rest are its operands.
func (a Abbreviation) decodeRecord(c *bitstream.Cursor, abbrevID uint32) (*Record, error) {
	start := c.TellBit()
	if len(a.Ops) == 0 {
		return nil, errors.New(errors.PhaseAbbrev, errors.KindInvalidAbbreviation).
			Offset(start).
			Value(abbrevID).
			Detail("abbreviation %d has no operands", abbrevID).
			Build()
	}

	values := make([]uint64, 0, len(a.Ops))
	var err error
	for _, op := range a.Ops {
		if values, err = op.decode(c, values); err != nil {
			return nil, err
		}
	}
	if len(values) == 0 {
		return nil, errors.New(errors.PhaseAbbrev, errors.KindInvalidAbbreviation).
			Offset(start).
			Value(abbrevID).
			Detail("abbreviation %d produced no record code", abbrevID).
			Build()
	}
	if values[0] > math.MaxUint32 {
		return nil, errors.New(errors.PhaseAbbrev, errors.KindOverflow).
			Offset(start).
			Value(values[0]).
			Detail("record code %d exceeds 32 bits", values[0]).
			Build()
	}
	return &Record{
		Code:     uint32(values[0]),
		Values:   values[1:],
		AbbrevID: abbrevID,
	}, nil
}
