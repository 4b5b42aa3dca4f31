package bitcode

import (
	"fmt"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// OperandKind identifies how an abbreviation operand is encoded.
type OperandKind uint8

const (
	OpLiteral OperandKind = iota // constant value, no bits consumed
	OpFixed                      // fixed-width field
	OpVBR                        // variable bit rate field
	OpArray                      // VBR6 count followed by elements
	OpChar6                      // 6-bit identifier character
	OpBlob                       // 32-bit aligned raw bytes
)

func (k OperandKind) String() string {
	switch k {
	case OpLiteral:
		return "literal"
	case OpFixed:
		return "fixed"
	case OpVBR:
		return "vbr"
	case OpArray:
		return "array"
	case OpChar6:
		return "char6"
	case OpBlob:
		return "blob"
	default:
		return fmt.Sprintf("OperandKind(%d)", k)
	}
}

// Operand is one field of an abbreviation.
//
// Value is used by OpLiteral, Width by OpFixed and OpVBR, and Elem by
// OpArray. A width of zero decodes as the constant 0 without consuming bits.
type Operand struct {
	Elem  *Operand
	Value uint64
	Width uint32
	Kind  OperandKind
}

// Literal returns a literal operand.
func Literal(v uint64) Operand { return Operand{Kind: OpLiteral, Value: v} }

// Fixed returns a fixed-width operand.
func Fixed(width uint32) Operand { return Operand{Kind: OpFixed, Width: width} }

// VBR returns a variable bit rate operand.
func VBR(width uint32) Operand { return Operand{Kind: OpVBR, Width: width} }

// Array returns an array operand with the given element encoding.
func Array(elem Operand) Operand { return Operand{Kind: OpArray, Elem: &elem} }

// Char6 returns a 6-bit character operand.
func Char6() Operand { return Operand{Kind: OpChar6} }

// Blob returns a blob operand.
func Blob() Operand { return Operand{Kind: OpBlob} }

func (o Operand) String() string {
	switch o.Kind {
	case OpLiteral:
		return fmt.Sprintf("literal(%d)", o.Value)
	case OpFixed, OpVBR:
		return fmt.Sprintf("%s(%d)", o.Kind, o.Width)
	case OpArray:
		if o.Elem == nil {
			return "array(?)"
		}
		return "array(" + o.Elem.String() + ")"
	default:
		return o.Kind.String()
	}
}

func (o Operand) consumesBits() bool {
	switch o.Kind {
	case OpLiteral:
		return false
	case OpFixed, OpVBR:
		return o.Width > 0
	default:
		return true
	}
}

// readOperand reads one operand definition from a DEFINE_ABBREV entry.
func readOperand(c *bitstream.Cursor) (Operand, error) {
	start := c.TellBit()
	isLiteral, err := c.Read(1)
	if err != nil {
		return Operand{}, err
	}
	if isLiteral == 1 {
		v, err := c.ReadVBR(literalWidth)
		if err != nil {
			return Operand{}, err
		}
		return Literal(v), nil
	}

	enc, err := c.Read(3)
	if err != nil {
		return Operand{}, err
	}
	switch enc {
	case encodingFixed, encodingVBR:
		width, err := c.ReadVBR32(operandWidth)
		if err != nil {
			return Operand{}, err
		}
		if width > 32 || (enc == encodingVBR && width == 1) {
			return Operand{}, errors.New(errors.PhaseAbbrev, errors.KindInvalidEncoding).
				Offset(start).
				Value(width).
				Detail("unsupported operand width %d", width).
				Build()
		}
		if enc == encodingFixed {
			return Fixed(width), nil
		}
		return VBR(width), nil

	case encodingArray:
		elem, err := readOperand(c)
		if err != nil {
			return Operand{}, err
		}
		if elem.Kind == OpArray || elem.Kind == OpBlob {
			return Operand{}, errors.New(errors.PhaseAbbrev, errors.KindInvalidEncoding).
				Offset(start).
				Detail("array element cannot be %s", elem.Kind).
				Build()
		}
		return Array(elem), nil

	case encodingChar6:
		return Char6(), nil

	case encodingBlob:
		return Blob(), nil

	default:
		return Operand{}, errors.New(errors.PhaseAbbrev, errors.KindInvalidEncoding).
			Offset(start).
			Value(enc).
			Detail("bad encoding %d", enc).
			Build()
	}
}

// decode reads the operand's value(s) and appends them to dst.
func (o Operand) decode(c *bitstream.Cursor, dst []uint64) ([]uint64, error) {
	switch o.Kind {
	case OpLiteral:
		return append(dst, o.Value), nil

	case OpFixed:
		if o.Width == 0 {
			return append(dst, 0), nil
		}
		v, err := c.Read(uint(o.Width))
		if err != nil {
			return dst, err
		}
		return append(dst, uint64(v)), nil

	case OpVBR:
		if o.Width == 0 {
			return append(dst, 0), nil
		}
		v, err := c.ReadVBR(uint(o.Width))
		if err != nil {
			return dst, err
		}
		return append(dst, v), nil

	case OpArray:
		start := c.TellBit()
		if o.Elem == nil {
			return dst, errors.New(errors.PhaseAbbrev, errors.KindInvalidEncoding).
				Offset(start).
				Detail("array without element encoding").
				Build()
		}
		n, err := c.ReadVBR(arrayCountWidth)
		if err != nil {
			return dst, err
		}
		// Elements that consume no bits are bounded by the stream size instead.
		limit := c.BitLen() - c.TellBit()
		if !o.Elem.consumesBits() {
			limit = c.BitLen()
		}
		if n > limit {
			return dst, errors.New(errors.PhaseAbbrev, errors.KindOutOfRange).
				Offset(start).
				Value(n).
				Detail("array of %d elements exceeds limit %d", n, limit).
				Build()
		}
		for i := uint64(0); i < n; i++ {
			if dst, err = o.Elem.decode(c, dst); err != nil {
				return dst, err
			}
		}
		return dst, nil

	case OpChar6:
		v, err := c.Read(char6Width)
		if err != nil {
			return dst, err
		}
		return append(dst, uint64(char6Alphabet[v])), nil

	case OpBlob:
		n, err := c.Read(blobCountWidth)
		if err != nil {
			return dst, err
		}
		if err := c.Align32(); err != nil {
			return dst, err
		}
		data, err := c.ReadBytes(int(n))
		if err != nil {
			return dst, err
		}
		for _, b := range data {
			dst = append(dst, uint64(b))
		}
		return dst, c.Align32()

	default:
		return dst, errors.New(errors.PhaseAbbrev, errors.KindInvalidEncoding).
			Offset(c.TellBit()).
			Detail("unknown operand kind %d", o.Kind).
			Build()
	}
}
