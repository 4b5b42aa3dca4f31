package dump

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/pexe/bitcode"
)

// Doc is the serializable form of a document.
type Doc struct {
	Header Header  `json:"header" cbor:"header"`
	Blocks []Block `json:"blocks" cbor:"blocks"`
}

// Header is the serializable form of bitcode.Header.
type Header struct {
	Sig       string  `json:"sig" cbor:"sig"`
	Fields    []Field `json:"fields" cbor:"fields"`
	NumFields uint16  `json:"num_fields" cbor:"num_fields"`
	NumBytes  uint16  `json:"num_bytes" cbor:"num_bytes"`
}

// Field is the serializable form of bitcode.HeaderField. Data is a uint32
// for scalar fields and a list of byte values otherwise.
type Field struct {
	Data  any   `json:"data" cbor:"data"`
	FType uint8 `json:"ftype" cbor:"ftype"`
	ID    uint8 `json:"id" cbor:"id"`
}

// Block is the serializable form of bitcode.Block. Chunks holds Block and
// Record values in stream order.
type Block struct {
	Type   string `json:"_type" cbor:"_type"`
	Chunks []any  `json:"chunks" cbor:"chunks"`
	ID     uint32 `json:"_id" cbor:"_id"`
}

// Record is the serializable form of bitcode.Record.
type Record struct {
	Type   string   `json:"_type" cbor:"_type"`
	Values []uint64 `json:"values" cbor:"values"`
	Code   uint32   `json:"code" cbor:"code"`
}

// Build converts doc into its serializable form.
func Build(doc *bitcode.Document) Doc {
	out := Doc{
		Header: Header{
			Sig:       doc.Header.Magic,
			NumFields: doc.Header.NumFields,
			NumBytes:  doc.Header.NumBytes,
			Fields:    make([]Field, len(doc.Header.Fields)),
		},
		Blocks: make([]Block, len(doc.Blocks)),
	}
	for i, f := range doc.Header.Fields {
		fld := Field{FType: uint8(f.Type), ID: f.ID}
		if f.Type == bitcode.FieldUint32 {
			fld.Data = f.Scalar
		} else {
			fld.Data = byteList(f.Bytes)
		}
		out.Header.Fields[i] = fld
	}
	for i, b := range doc.Blocks {
		out.Blocks[i] = buildBlock(b)
	}
	return out
}

// byteList marshals as a list of numbers rather than base64 or a byte string.
type byteList []uint8

func (b byteList) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

func (b byteList) MarshalCBOR() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return cborEncMode.Marshal(ints)
}

func buildBlock(b *bitcode.Block) Block {
	out := Block{Type: "Block", ID: b.ID, Chunks: make([]any, 0, len(b.Chunks))}
	for _, ch := range b.Chunks {
		switch ch := ch.(type) {
		case *bitcode.Block:
			out.Chunks = append(out.Chunks, buildBlock(ch))
		case *bitcode.Record:
			values := ch.Values
			if values == nil {
				values = []uint64{}
			}
			out.Chunks = append(out.Chunks, Record{Type: "Record", Code: ch.Code, Values: values})
		}
	}
	return out
}

// JSON writes doc as JSON. indent, when non-empty, pretty-prints the output.
func JSON(w io.Writer, doc *bitcode.Document, indent string) error {
	enc := json.NewEncoder(w)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(Build(doc))
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dump: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CBOR writes doc as canonical CBOR with the same shape as JSON.
func CBOR(w io.Writer, doc *bitcode.Document) error {
	data, err := cborEncMode.Marshal(Build(doc))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
