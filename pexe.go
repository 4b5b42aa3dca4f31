package pexe

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/pexe/bitcode"
	"github.com/wippyai/pexe/source"
)

// Options configures DecodeLocation.
type Options struct {
	// Logger is passed to the loader. Decode logging is set through Decode.
	Logger *zap.Logger
	Decode []bitcode.Option
	Source []source.Option
}

// Decode parses an in-memory PEXE buffer.
func Decode(data []byte, opts ...bitcode.Option) (*bitcode.Document, error) {
	return bitcode.Decode(data, opts...)
}

// DecodeLocation loads a file path or http(s) URL, expanding gzip or zstd
// compression, and decodes the result.
func DecodeLocation(ctx context.Context, location string, opts Options) (*bitcode.Document, error) {
	srcOpts := append([]source.Option{source.WithLogger(opts.Logger)}, opts.Source...)
	data, err := source.Load(ctx, location, srcOpts...)
	if err != nil {
		return nil, err
	}
	return bitcode.Decode(data, opts.Decode...)
}
