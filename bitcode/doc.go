// Package bitcode decodes the PNaCl bitstream container used by PEXE files.
//
// A file is a "PEXE" header with a small typed field table followed by a
// sequence of top-level blocks. Blocks nest, and each block body is a stream
// of tags: END_BLOCK, ENTER_SUBBLOCK, DEFINE_ABBREV, UNABBREV_RECORD, or the
// ID of an abbreviation that describes how to decode one record.
//
// # Decoding
//
//	data, _ := os.ReadFile("simple.pexe")
//	doc, err := bitcode.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range doc.Blocks {
//	    fmt.Println(b.ID, len(b.Chunks))
//	}
//
// # BLOCKINFO
//
// Block 0 is reserved. Its SETBID records select a target block ID, and any
// abbreviation it defines is registered for that target instead of for
// block 0. Every later block with the target ID starts with those
// abbreviations. BLOCKNAME and SETRECORDNAME records attach display names,
// available after decoding through Document.BlockInfo.
//
// The decoder does not interpret record codes. It checks only that the bit
// layout is well formed; every failure is an *errors.Error carrying the bit
// offset and block path where decoding stopped.
//
// # Concurrency
//
// Each Decode call owns its cursor and registry. Independent buffers may be
// decoded in parallel; a decoded Document is read-only.
package bitcode
