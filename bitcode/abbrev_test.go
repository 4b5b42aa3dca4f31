package bitcode

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

func TestReadAbbreviation(t *testing.T) {
	// Two declared operands: a literal and an array whose element is the
	// second declared slot.
	c := cursor("01000" + "1 01101000" + "0110 0100 00100")
	a, err := readAbbreviation(c)
	if err != nil {
		t.Fatalf("readAbbreviation: %v", err)
	}
	want := Abbreviation{Ops: []Operand{Literal(22), Array(Fixed(4))}}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("abbreviation (-want +got):\n%s", diff)
	}
	if got := a.String(); got != "[literal(22), array(fixed(4))]" {
		t.Errorf("String() = %q", got)
	}
}

func TestReadAbbreviationSlotCounting(t *testing.T) {
	var w streamWriter
	w.vbr(5, abbrevCountWidth)
	opFixed(3)(&w)
	opArray()(&w)
	opChar6()(&w)
	opVBR(6)(&w)
	opBlob()(&w)
	a, err := readAbbreviation(bitstream.New(w.bytes()))
	if err != nil {
		t.Fatalf("readAbbreviation: %v", err)
	}
	want := []Operand{Fixed(3), Array(Char6()), VBR(6), Blob()}
	if diff := cmp.Diff(want, a.Ops); diff != "" {
		t.Errorf("ops (-want +got):\n%s", diff)
	}
}

func TestReadAbbreviationArrayClosesList(t *testing.T) {
	var w streamWriter
	w.vbr(2, abbrevCountWidth)
	opLiteral(22)(&w)
	opArray()(&w)
	opFixed(4)(&w)
	opFixed(9)(&w) // not part of the definition
	c := bitstream.New(w.bytes())
	a, err := readAbbreviation(c)
	if err != nil {
		t.Fatalf("readAbbreviation: %v", err)
	}
	want := []Operand{Literal(22), Array(Fixed(4))}
	if diff := cmp.Diff(want, a.Ops); diff != "" {
		t.Errorf("ops (-want +got):\n%s", diff)
	}
	op, err := readOperand(c)
	if err != nil || op != Fixed(9) {
		t.Errorf("next operand = %s, %v; want fixed(9)", op, err)
	}
}

func TestReadAbbreviationTooManyOperands(t *testing.T) {
	var w streamWriter
	w.vbr(30, abbrevCountWidth)
	opChar6()(&w)
	_, err := readAbbreviation(bitstream.New(w.bytes()))
	if !stderrors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
}

func TestUnabbrevRecord(t *testing.T) {
	c := cursor("011010 010000" + "010100 001010")
	rec, err := readUnabbrevRecord(c)
	if err != nil {
		t.Fatalf("readUnabbrevRecord: %v", err)
	}
	want := &Record{Code: 22, Values: []uint64{10, 20}, AbbrevID: UnabbrevRecord}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if rec.Abbreviated() {
		t.Error("unabbreviated record reported as abbreviated")
	}
}

func TestUnabbrevRecordCountExceedsStream(t *testing.T) {
	var w streamWriter
	w.vbr(1, unabbrevWidth)
	w.vbr(1000, unabbrevWidth)
	_, err := readUnabbrevRecord(bitstream.New(w.bytes()))
	if !stderrors.Is(err, errors.ErrOutOfRange) {
		t.Errorf("expected out of range, got %v", err)
	}
}

func TestAbbreviatedRecord(t *testing.T) {
	a := Abbreviation{Ops: []Operand{Literal(22), Array(Fixed(5))}}
	rec, err := a.decodeRecord(cursor("010000 01010 00101"), FirstApplicationAbbrev)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	want := &Record{Code: 22, Values: []uint64{10, 20}, AbbrevID: 4}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
	if !rec.Abbreviated() {
		t.Error("expected abbreviated record")
	}
}

func TestAbbreviatedRecordCodeFromStream(t *testing.T) {
	a := Abbreviation{Ops: []Operand{Array(Fixed(4))}}
	rec, err := a.decodeRecord(cursor("110000 1010 0110 1110"), 4)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	want := &Record{Code: 5, Values: []uint64{6, 7}, AbbrevID: 4}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record (-want +got):\n%s", diff)
	}
}

func TestAbbreviatedRecordInvalid(t *testing.T) {
	tests := []struct {
		name   string
		abbrev Abbreviation
		input  string
		kind   *errors.Error
	}{
		{"no operands", Abbreviation{}, "", errors.ErrInvalidAbbreviation},
		{"empty array only", Abbreviation{Ops: []Operand{Array(Fixed(4))}}, "000000", errors.ErrInvalidAbbreviation},
		{"truncated", Abbreviation{Ops: []Operand{Fixed(16)}}, "1111", errors.ErrOutOfRange},
		{"code too wide", Abbreviation{Ops: []Operand{Literal(1 << 40)}}, "", errors.ErrOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.abbrev.decodeRecord(cursor(tt.input), 4)
			if !stderrors.Is(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind.Kind, err)
			}
		})
	}
}

func TestRecordText(t *testing.T) {
	rec := &Record{Code: 2, Values: []uint64{'m', 'a', 'i', 'n'}}
	if s, ok := rec.Text(); !ok || s != "main" {
		t.Errorf("Text() = %q, %v", s, ok)
	}
	rec = &Record{Values: []uint64{1 << 40}}
	if _, ok := rec.Text(); ok {
		t.Error("expected invalid text")
	}
	if got := (&Record{Code: 1, Values: []uint64{20}}).String(); got != "record code=1 values=[20]" {
		t.Errorf("String() = %q", got)
	}
}

var cmpTree = cmp.Options{
	cmpopts.IgnoreFields(Block{}, "Offset", "Words"),
	cmpopts.EquateEmpty(),
}
