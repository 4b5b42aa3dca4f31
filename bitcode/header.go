package bitcode

import (
	"fmt"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// FieldType selects the payload of a header field.
type FieldType uint8

const (
	FieldBytes  FieldType = 0 // length raw bytes
	FieldUint32 FieldType = 1 // one 32-bit scalar
)

func (t FieldType) String() string {
	switch t {
	case FieldBytes:
		return "bytes"
	case FieldUint32:
		return "uint32"
	default:
		return fmt.Sprintf("FieldType(%d)", t)
	}
}

// headerFieldID is the only field ID currently defined.
const headerFieldID = 1

// HeaderField is one typed entry of the PEXE header.
type HeaderField struct {
	Bytes  []byte // FieldBytes payload
	Scalar uint32 // FieldUint32 payload
	Length uint16 // declared length; unused for FieldUint32
	Type   FieldType
	ID     uint8
}

// Data returns the payload: []byte for FieldBytes, uint32 for FieldUint32.
func (f HeaderField) Data() any {
	if f.Type == FieldUint32 {
		return f.Scalar
	}
	return f.Bytes
}

// Header is the fixed envelope preceding the top-level blocks.
type Header struct {
	Magic     string
	Fields    []HeaderField
	NumFields uint16
	// NumBytes is the declared size of the field table. It is not checked.
	NumBytes uint16
}

func readHeader(c *bitstream.Cursor) (Header, error) {
	for i := 0; i < len(Magic); i++ {
		at := c.TellBit()
		b, err := c.Read(8)
		if err != nil {
			return Header{}, errors.New(errors.PhaseHeader, errors.KindBadSignature).
				Offset(at).
				Cause(err).
				Detail("truncated signature").
				Build()
		}
		if byte(b) != Magic[i] {
			return Header{}, errors.New(errors.PhaseHeader, errors.KindBadSignature).
				Offset(at).
				Value(b).
				Detail("byte %d is 0x%02x, want %q", i, b, Magic[i]).
				Build()
		}
	}

	h := Header{Magic: Magic}
	numFields, err := c.Read(16)
	if err != nil {
		return Header{}, err
	}
	numBytes, err := c.Read(16)
	if err != nil {
		return Header{}, err
	}
	h.NumFields, h.NumBytes = uint16(numFields), uint16(numBytes)

	h.Fields = make([]HeaderField, 0, min(int(h.NumFields), c.Len()/4))
	for i := 0; i < int(h.NumFields); i++ {
		f, err := readHeaderField(c)
		if err != nil {
			return Header{}, errors.WithPath(err, fmt.Sprintf("field[%d]", i))
		}
		h.Fields = append(h.Fields, f)
	}
	return h, nil
}

func readHeaderField(c *bitstream.Cursor) (HeaderField, error) {
	start := c.TellBit()
	ftype, err := c.Read(4)
	if err != nil {
		return HeaderField{}, err
	}
	id, err := c.Read(4)
	if err != nil {
		return HeaderField{}, err
	}
	if id != headerFieldID {
		return HeaderField{}, errors.New(errors.PhaseHeader, errors.KindBadHeaderID).
			Offset(start).
			Value(id).
			Detail("bad header id %d", id).
			Build()
	}
	// Pad to a 16-bit boundary.
	if _, err := c.Read(8); err != nil {
		return HeaderField{}, err
	}
	length, err := c.Read(16)
	if err != nil {
		return HeaderField{}, err
	}

	f := HeaderField{Type: FieldType(ftype), ID: uint8(id), Length: uint16(length)}
	switch f.Type {
	case FieldBytes:
		if f.Bytes, err = c.ReadBytes(int(length)); err != nil {
			return HeaderField{}, err
		}
	case FieldUint32:
		if f.Scalar, err = c.Read(32); err != nil {
			return HeaderField{}, err
		}
	default:
		return HeaderField{}, errors.New(errors.PhaseHeader, errors.KindBadFieldType).
			Offset(start).
			Value(ftype).
			Detail("bad field type %d", ftype).
			Build()
	}
	return f, nil
}
