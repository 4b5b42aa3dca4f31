package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in decoding the error occurred
type Phase string

const (
	PhaseRead      Phase = "read"      // bit cursor primitives
	PhaseHeader    Phase = "header"    // PEXE header and fields
	PhaseAbbrev    Phase = "abbrev"    // abbreviation definitions and replay
	PhaseBlock     Phase = "block"     // block body parsing
	PhaseBlockInfo Phase = "blockinfo" // BLOCKINFO metadata records
	PhaseLoad      Phase = "load"      // fetching the raw buffer
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfRange            Kind = "out_of_range"
	KindBadSignature          Kind = "bad_signature"
	KindBadHeaderID           Kind = "bad_header_id"
	KindBadFieldType          Kind = "bad_field_type"
	KindInvalidEncoding       Kind = "invalid_encoding"
	KindInvalidAbbreviation   Kind = "invalid_abbreviation"
	KindInvalidAbbreviationID Kind = "invalid_abbreviation_id"
	KindNoTargetBlock         Kind = "no_target_block"
	KindExpectedTopLevelBlock Kind = "expected_top_level_block"
	KindUnexpectedEnd         Kind = "unexpected_end_of_stream"
	KindInvalidWidth          Kind = "invalid_width"
	KindOverflow              Kind = "overflow"
	KindInvalidData           Kind = "invalid_data"
	KindDepthExceeded         Kind = "depth_exceeded"
	KindLengthMismatch        Kind = "length_mismatch"
	KindNotFound              Kind = "not_found"
	KindUnsupported           Kind = "unsupported"
)

// Error is the structured error type returned by every decoding stage
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset uint64 // bit offset in the stream
	// HasOffset distinguishes a zero offset from an unknown one.
	HasOffset bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HasOffset {
		fmt.Fprintf(&b, " at bit %d (byte %d)", e.Offset, e.Offset/8)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the block nesting path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the bit offset where the failure was detected
func (b *Builder) Offset(bit uint64) *Builder {
	b.err.Offset = bit
	b.err.HasOffset = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrOutOfRange            = &Error{Kind: KindOutOfRange}
	ErrBadSignature          = &Error{Kind: KindBadSignature}
	ErrBadHeaderID           = &Error{Kind: KindBadHeaderID}
	ErrBadFieldType          = &Error{Kind: KindBadFieldType}
	ErrInvalidEncoding       = &Error{Kind: KindInvalidEncoding}
	ErrInvalidAbbreviation   = &Error{Kind: KindInvalidAbbreviation}
	ErrInvalidAbbreviationID = &Error{Kind: KindInvalidAbbreviationID}
	ErrNoTargetBlock         = &Error{Kind: KindNoTargetBlock}
	ErrExpectedTopLevelBlock = &Error{Kind: KindExpectedTopLevelBlock}
	ErrUnexpectedEnd         = &Error{Kind: KindUnexpectedEnd}
	ErrInvalidWidth          = &Error{Kind: KindInvalidWidth}
	ErrOverflow              = &Error{Kind: KindOverflow}
	ErrInvalidData           = &Error{Kind: KindInvalidData}
	ErrDepthExceeded         = &Error{Kind: KindDepthExceeded}
	ErrLengthMismatch        = &Error{Kind: KindLengthMismatch}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrUnsupported           = &Error{Kind: KindUnsupported}
)

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WithPath prefixes the nesting path of a structured error. Errors that are
// not *Error are returned unchanged.
func WithPath(err error, segment string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	e.Path = append([]string{segment}, e.Path...)
	return err
}

// Convenience constructors for common error patterns

// OutOfRange creates an out of range error for a seek or refill past the buffer
func OutOfRange(offset, limit uint64) *Error {
	return &Error{
		Phase:     PhaseRead,
		Kind:      KindOutOfRange,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("bit offset %d beyond stream length %d", offset, limit),
		Value:     offset,
	}
}

// InvalidWidth creates an error for a bit width outside the permitted range
func InvalidWidth(offset uint64, width, lo, hi uint) *Error {
	return &Error{
		Phase:     PhaseRead,
		Kind:      KindInvalidWidth,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("width %d outside %d..%d", width, lo, hi),
		Value:     width,
	}
}

// Overflow creates an overflow error for a VBR value wider than its target
func Overflow(offset uint64, bits uint) *Error {
	return &Error{
		Phase:     PhaseRead,
		Kind:      KindOverflow,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("vbr value exceeds %d bits", bits),
	}
}

// UnexpectedEnd creates an error for a block body that runs off the stream
func UnexpectedEnd(offset uint64, blockID uint32) *Error {
	return &Error{
		Phase:     PhaseBlock,
		Kind:      KindUnexpectedEnd,
		Offset:    offset,
		HasOffset: true,
		Detail:    fmt.Sprintf("block %d has no END_BLOCK", blockID),
		Value:     blockID,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, offset uint64, detail string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindInvalidData,
		Offset:    offset,
		HasOffset: true,
		Detail:    detail,
	}
}

// Load creates a buffer loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}
