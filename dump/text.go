// Package dump renders decoded bitcode documents as text, JSON or CBOR.
package dump

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/pexe/bitcode"
)

// LineKind identifies what a listing line describes.
type LineKind uint8

const (
	LineHeader LineKind = iota
	LineField
	LineBlock
	LineRecord
)

// Line is one row of a flattened document listing.
type Line struct {
	Label string
	// BlockID is the block the line describes or belongs to. It is unset
	// for header lines.
	BlockID uint32
	Depth   int
	Kind    LineKind
}

// TextOptions controls Text and Flatten.
type TextOptions struct {
	Names Names
	// Indent is repeated once per nesting level. Defaults to two spaces.
	Indent string
	// MaxValues truncates long record value lists. Zero shows all values.
	MaxValues int
	// Color styles the output with ANSI escapes.
	Color bool
	// ShowText appends the quoted string form of records whose values are
	// all printable ASCII.
	ShowText bool
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	fieldStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	blockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	recordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
)

// Style returns the lipgloss style used for lines of kind k.
func Style(k LineKind) lipgloss.Style {
	switch k {
	case LineHeader:
		return headerStyle
	case LineField:
		return fieldStyle
	case LineBlock:
		return blockStyle
	default:
		return recordStyle
	}
}

// Flatten lists the header, fields, blocks and records of doc in stream
// order, one line each.
func Flatten(doc *bitcode.Document, opts TextOptions) []Line {
	h := doc.Header
	lines := []Line{{
		Kind:  LineHeader,
		Label: fmt.Sprintf("%s fields=%d bytes=%d", h.Magic, h.NumFields, h.NumBytes),
	}}
	for i, f := range h.Fields {
		lines = append(lines, Line{Kind: LineField, Depth: 1, Label: fieldLabel(i, f)})
	}
	for _, b := range doc.Blocks {
		lines = appendBlock(lines, doc.BlockInfo, b, 0, opts)
	}
	return lines
}

func fieldLabel(i int, f bitcode.HeaderField) string {
	switch f.Type {
	case bitcode.FieldUint32:
		return fmt.Sprintf("field[%d] %s id=%d data=%d", i, f.Type, f.ID, f.Scalar)
	default:
		return fmt.Sprintf("field[%d] %s id=%d len=%d data=%s", i, f.Type, f.ID, f.Length, hex.EncodeToString(f.Bytes))
	}
}

func appendBlock(lines []Line, info *bitcode.BlockInfo, b *bitcode.Block, depth int, opts TextOptions) []Line {
	var sb strings.Builder
	sb.WriteString("block ")
	sb.WriteString(strconv.FormatUint(uint64(b.ID), 10))
	if name := opts.Names.Block(info, b.ID); name != "" {
		sb.WriteByte(' ')
		sb.WriteString(name)
	}
	fmt.Fprintf(&sb, " width=%d words=%d", b.CodeLen, b.Words)
	lines = append(lines, Line{Kind: LineBlock, Depth: depth, BlockID: b.ID, Label: sb.String()})

	for _, ch := range b.Chunks {
		switch ch := ch.(type) {
		case *bitcode.Block:
			lines = appendBlock(lines, info, ch, depth+1, opts)
		case *bitcode.Record:
			lines = append(lines, Line{
				Kind:    LineRecord,
				Depth:   depth + 1,
				BlockID: b.ID,
				Label:   recordLabel(info, b.ID, ch, opts),
			})
		}
	}
	return lines
}

func recordLabel(info *bitcode.BlockInfo, blockID uint32, r *bitcode.Record, opts TextOptions) string {
	var sb strings.Builder
	sb.WriteString("record ")
	sb.WriteString(strconv.FormatUint(uint64(r.Code), 10))
	if name := opts.Names.Record(info, blockID, r.Code); name != "" {
		sb.WriteByte(' ')
		sb.WriteString(name)
	}
	if r.Abbreviated() {
		fmt.Fprintf(&sb, " abbrev=%d", r.AbbrevID)
	}
	sb.WriteString(" [")
	n := len(r.Values)
	if opts.MaxValues > 0 && n > opts.MaxValues {
		n = opts.MaxValues
	}
	for i, v := range r.Values[:n] {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(v, 10))
	}
	if rest := len(r.Values) - n; rest > 0 {
		fmt.Fprintf(&sb, " ...+%d", rest)
	}
	sb.WriteByte(']')
	if opts.ShowText && printable(r.Values) {
		s, _ := r.Text()
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(s))
	}
	return sb.String()
}

func printable(values []uint64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if v < 0x20 || v > 0x7e {
			return false
		}
	}
	return true
}

// Render formats one line with indentation and optional styling.
func Render(l Line, opts TextOptions) string {
	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	label := l.Label
	if opts.Color {
		label = Style(l.Kind).Render(label)
	}
	return strings.Repeat(indent, l.Depth) + label
}

// Text writes an indented listing of doc to w.
func Text(w io.Writer, doc *bitcode.Document, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	for _, l := range Flatten(doc, opts) {
		bw.WriteString(Render(l, opts))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
