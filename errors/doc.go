// Package errors provides structured error types for the PEXE bitcode decoder.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the bit offset of the failure, the block nesting path and
// an optional cause chain, so a corrupt file can be diagnosed from the message alone.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBlock, errors.KindInvalidAbbreviationID).
//		Offset(c.TellBit()).
//		Value(tag).
//		Detail("abbreviation %d not defined", tag).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(offset, limit)
//	err := errors.UnexpectedEnd(offset, blockID)
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match on Kind alone:
//
//	if errors.Is(err, errors.ErrBadSignature) { ... }
package errors
