// Package pexe decodes PNaCl executables (.pexe), the LLVM bitstream
// container used by Portable Native Client.
//
// A PEXE file is a short typed header followed by a tree of blocks. Blocks
// hold records, which are (code, values) tuples, and nested blocks. Records
// are written either in a generic VBR6 form or through abbreviations that
// the stream itself declares, locally in a block or globally in the
// BLOCKINFO block (ID 0).
//
// # Architecture Overview
//
//	pexe/                  Root package: load + decode convenience
//	├── bitcode/           Header, block, record and abbreviation decoding
//	│   └── internal/
//	│       └── bitstream/ LSB-first bit cursor with VBR reads
//	├── source/            File and HTTP(S) loading, gzip/zstd detection
//	├── dump/              Text, JSON and CBOR renderers
//	├── errors/            Structured error types for debugging
//	└── cmd/pexedump/      Command-line dumper and interactive browser
//
// # Quick Start
//
// Decode a file from disk or a URL:
//
//	doc, err := pexe.DecodeLocation(ctx, "simple.pexe", pexe.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range doc.Blocks {
//	    fmt.Println(b.ID, len(b.Chunks))
//	}
//
// Decode an in-memory buffer:
//
//	doc, err := pexe.Decode(data, bitcode.WithMaxDepth(32))
//
// # Errors
//
// Every failure is an *errors.Error carrying the decoding phase, a kind, the
// bit offset and the block path where it was detected:
//
//	if errors.Is(err, pexeerrors.ErrUnexpectedEnd) { ... }
//
// A failed decode never returns a partial document.
//
// # Thread Safety
//
// Decode keeps all state in the call, so independent documents may be
// decoded concurrently. A returned Document is not modified afterwards and
// may be shared between goroutines for reading.
package pexe
