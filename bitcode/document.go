package bitcode

import (
	"go.uber.org/zap"

	"github.com/wippyai/pexe/bitcode/internal/bitstream"
	"github.com/wippyai/pexe/errors"
)

// Document is a fully decoded bitcode file.
type Document struct {
	// BlockInfo holds the names declared by BLOCKINFO blocks.
	BlockInfo *BlockInfo
	Blocks    []*Block
	Header    Header
}

// Walk calls fn for every block of the document in depth-first stream order.
func (d *Document) Walk(fn func(b *Block, depth int) bool) {
	for _, b := range d.Blocks {
		b.Walk(fn)
	}
}

// Options controls decoding behavior.
type Options struct {
	// Logger receives debug events. Defaults to the package logger.
	Logger *zap.Logger
	// MaxDepth bounds block nesting. Defaults to DefaultMaxDepth.
	MaxDepth int
	// CheckBlockLength rejects blocks whose END_BLOCK does not land on the
	// declared word count.
	CheckBlockLength bool
	// MaxValues bounds the number of record codes and values decoded from
	// the whole document. Defaults to the larger of DefaultMaxValues and the
	// stream length in bits.
	MaxValues int
}

// Option configures Decode.
type Option func(*Options)

// WithLogger sets the logger for one decode.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMaxDepth bounds block nesting.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

// WithBlockLengthCheck enables validation of declared block lengths.
func WithBlockLengthCheck(enabled bool) Option {
	return func(o *Options) { o.CheckBlockLength = enabled }
}

// WithMaxValues bounds the total number of decoded record values.
func WithMaxValues(n int) Option {
	return func(o *Options) { o.MaxValues = n }
}

// Decode parses a complete bitcode file.
func Decode(data []byte, opts ...Option) (*Document, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return DecodeWithOptions(data, o)
}

// DecodeWithOptions parses a complete bitcode file. On error no partial
// document is returned.
func DecodeWithOptions(data []byte, opts Options) (*Document, error) {
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	c := bitstream.New(data)
	header, err := readHeader(c)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		c:         c,
		reg:       newRegistry(opts.Logger),
		log:       opts.Logger,
		opts:      opts,
		maxValues: uint64(opts.MaxValues),
	}
	if opts.MaxValues <= 0 {
		d.maxValues = max(c.BitLen(), DefaultMaxValues)
	}
	doc := &Document{Header: header}
	for !c.AtEnd() {
		at := c.TellBit()
		tag, err := c.Read(topLevelCodeLen)
		if err != nil {
			return nil, err
		}
		if tag != EnterSubblock {
			return nil, errors.New(errors.PhaseBlock, errors.KindExpectedTopLevelBlock).
				Offset(at).
				Value(tag).
				Detail("top-level tag %d, want ENTER_SUBBLOCK", tag).
				Build()
		}
		b, err := d.readBlock(1)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, b)
	}
	doc.BlockInfo = d.reg.Snapshot()

	opts.Logger.Debug("decoded document",
		zap.Int("header_fields", len(header.Fields)),
		zap.Int("blocks", len(doc.Blocks)),
		zap.Int("bytes", c.Len()),
	)
	return doc, nil
}
