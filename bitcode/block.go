package bitcode

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// Chunk is an entry of a block body: either a *Record or a nested *Block.
type Chunk interface {
	isChunk()
}

// Block is a container of records and nested blocks in stream order.
type Block struct {
	Chunks  []Chunk
	ID      uint32
	CodeLen uint32
	// Words is the body length declared in the block header. It is only
	// checked when Options.CheckBlockLength is set.
	Words uint32
	// Offset is the bit offset of the first tag of the body.
	Offset uint64
}

func (*Block) isChunk() {}

// Records returns the records directly inside b.
func (b *Block) Records() []*Record {
	var out []*Record
	for _, ch := range b.Chunks {
		if r, ok := ch.(*Record); ok {
			out = append(out, r)
		}
	}
	return out
}

// Blocks returns the blocks directly inside b.
func (b *Block) Blocks() []*Block {
	var out []*Block
	for _, ch := range b.Chunks {
		if sub, ok := ch.(*Block); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Walk calls fn for b and every nested block in depth-first stream order.
// Returning false from fn skips that block's children.
func (b *Block) Walk(fn func(b *Block, depth int) bool) {
	b.walk(fn, 0)
}

func (b *Block) walk(fn func(*Block, int) bool, depth int) {
	if !fn(b, depth) {
		return
	}
	for _, ch := range b.Chunks {
		if sub, ok := ch.(*Block); ok {
			sub.walk(fn, depth+1)
		}
	}
}

// decoder carries the state shared by one document decode.
type decoder struct {
	c    *bitstream.Cursor
	reg  *Registry
	log  *zap.Logger
	opts Options

	// Abbreviations with zero-width operands can emit values without
	// consuming input, so the total is charged against a budget.
	values    uint64
	maxValues uint64
}

func blockSegment(id uint32) string {
	return "block[" + strconv.FormatUint(uint64(id), 10) + "]"
}

// readBlock reads a block whose ENTER_SUBBLOCK tag has been consumed.
func (d *decoder) readBlock(depth int) (blk *Block, err error) {
	c := d.c
	id, err := c.ReadVBR32(blockIDWidth)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.WithPath(err, blockSegment(id))
		}
	}()

	start := c.TellBit()
	codeLen, err := c.ReadVBR32(codeLenWidth)
	if err != nil {
		return nil, err
	}
	if codeLen == 0 || codeLen > 32 {
		return nil, errors.New(errors.PhaseBlock, errors.KindInvalidData).
			Offset(start).
			Value(codeLen).
			Detail("abbreviation width %d outside 1..32", codeLen).
			Build()
	}
	if err := c.Align32(); err != nil {
		return nil, err
	}
	words, err := c.Read(32)
	if err != nil {
		return nil, err
	}

	blk = &Block{ID: id, CodeLen: codeLen, Words: words, Offset: c.TellBit()}
	abbrevs := d.reg.Abbreviations(id)
	isBlockInfo := id == BlockInfoID

	if ce := d.log.Check(zap.DebugLevel, "enter block"); ce != nil {
		ce.Write(
			zap.Uint32("block_id", id),
			zap.Int("depth", depth),
			zap.Uint32("code_len", codeLen),
			zap.Uint32("words", words),
			zap.Int("inherited_abbrevs", len(abbrevs)),
			zap.Uint64("bit", blk.Offset),
		)
	}

	for !c.AtEnd() {
		tagAt := c.TellBit()
		tag, err := c.Read(uint(codeLen))
		if err != nil {
			return nil, err
		}

		switch tag {
		case EndBlock:
			if err := c.Align32(); err != nil {
				return nil, err
			}
			if d.opts.CheckBlockLength {
				if err := checkLength(blk, c.TellBit()); err != nil {
					return nil, err
				}
			}
			d.log.Debug("exit block",
				zap.Uint32("block_id", id),
				zap.Int("chunks", len(blk.Chunks)),
				zap.Uint64("bit", c.TellBit()),
			)
			return blk, nil

		case EnterSubblock:
			if depth >= d.opts.MaxDepth {
				return nil, errors.New(errors.PhaseBlock, errors.KindDepthExceeded).
					Offset(tagAt).
					Value(depth + 1).
					Detail("block nesting exceeds %d", d.opts.MaxDepth).
					Build()
			}
			sub, err := d.readBlock(depth + 1)
			if err != nil {
				return nil, err
			}
			blk.Chunks = append(blk.Chunks, sub)

		case DefineAbbrev:
			a, err := readAbbreviation(c)
			if err != nil {
				return nil, err
			}
			abbrevs = append(abbrevs, a)
			if isBlockInfo {
				if err := d.reg.define(a, tagAt); err != nil {
					return nil, err
				}
			}

		case UnabbrevRecord:
			rec, err := readUnabbrevRecord(c)
			if err != nil {
				return nil, err
			}
			if err := d.addRecord(blk, rec, isBlockInfo, tagAt); err != nil {
				return nil, err
			}

		default:
			idx := int(tag - FirstApplicationAbbrev)
			if idx >= len(abbrevs) {
				return nil, errors.New(errors.PhaseBlock, errors.KindInvalidAbbreviationID).
					Offset(tagAt).
					Value(tag).
					Detail("abbreviation %d not defined (%d available)", tag, len(abbrevs)).
					Build()
			}
			rec, err := abbrevs[idx].decodeRecord(c, tag)
			if err != nil {
				return nil, err
			}
			if err := d.addRecord(blk, rec, isBlockInfo, tagAt); err != nil {
				return nil, err
			}
		}
	}

	return nil, errors.UnexpectedEnd(c.TellBit(), id)
}

func (d *decoder) addRecord(blk *Block, rec *Record, isBlockInfo bool, offset uint64) error {
	d.values += uint64(len(rec.Values)) + 1
	if d.values > d.maxValues {
		return errors.New(errors.PhaseBlock, errors.KindOutOfRange).
			Offset(offset).
			Value(d.values).
			Detail("document exceeds %d decoded values", d.maxValues).
			Build()
	}
	blk.Chunks = append(blk.Chunks, rec)
	if isBlockInfo {
		return d.reg.observe(rec, offset)
	}
	return nil
}

func checkLength(blk *Block, end uint64) error {
	want := blk.Offset + uint64(blk.Words)*32
	if end != want {
		return errors.New(errors.PhaseBlock, errors.KindLengthMismatch).
			Offset(end).
			Value(blk.Words).
			Detail("block declares %d words but ends at bit %d, want %d", blk.Words, end, want).
			Build()
	}
	return nil
}
