// Package source loads raw bitcode buffers from files or HTTP(S) URLs.
//
// Gzip and zstd payloads are detected by their magic bytes and expanded
// transparently, so a compressed .pexe.gz or .pexe.zst can be passed
// anywhere an uncompressed file is accepted.
package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/wippyai/pexe/errors"
)

// DefaultMaxSize bounds the size of a loaded buffer after decompression.
const DefaultMaxSize = 256 << 20

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Compression names the container a buffer was wrapped in.
type Compression string

const (
	None Compression = ""
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

// Options controls loading.
type Options struct {
	// Client performs HTTP(S) requests. Defaults to http.DefaultClient.
	Client *http.Client
	// Logger receives debug events. Defaults to a no-op logger.
	Logger *zap.Logger
	// MaxSize bounds the raw and decompressed sizes. Defaults to DefaultMaxSize.
	MaxSize int64
}

// Option configures Load.
type Option func(*Options)

// WithClient sets the HTTP client used for URLs.
func WithClient(c *http.Client) Option {
	return func(o *Options) { o.Client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMaxSize bounds the loaded size in bytes.
func WithMaxSize(n int64) Option {
	return func(o *Options) { o.MaxSize = n }
}

// IsURL reports whether location is fetched over HTTP rather than read
// from disk.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Load reads location, a file path or http(s) URL, and returns the
// decompressed contents.
func Load(ctx context.Context, location string, opts ...Option) ([]byte, error) {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Load("load "+location, err)
	}

	var (
		raw []byte
		err error
	)
	switch {
	case IsURL(location):
		raw, err = fetch(ctx, o, location)
	case strings.Contains(location, "://"):
		scheme, _, _ := strings.Cut(location, "://")
		return nil, errors.Unsupported(errors.PhaseLoad, scheme+" scheme")
	default:
		raw, err = readFile(o, location)
	}
	if err != nil {
		return nil, err
	}

	kind := Detect(raw)
	data, err := decompress(raw, kind, o.MaxSize)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("loaded source",
		zap.String("location", location),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("bytes", len(data)),
		zap.String("compression", string(kind)),
	)
	return data, nil
}

func readFile(o Options, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound(errors.PhaseLoad, "file", path)
		}
		return nil, errors.Load("open "+path, err)
	}
	defer f.Close()
	return readLimited(f, o.MaxSize, path)
}

func fetch(ctx context.Context, o Options, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Load("request "+url, err)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, errors.Load("fetch "+url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound(errors.PhaseLoad, "url", url)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Value(resp.StatusCode).
			Detail("fetch %s: %s", url, resp.Status).
			Build()
	}
	return readLimited(resp.Body, o.MaxSize, url)
}

func readLimited(r io.Reader, limit int64, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Load("read "+name, err)
	}
	if int64(len(data)) > limit {
		return nil, errors.New(errors.PhaseLoad, errors.KindOutOfRange).
			Value(limit).
			Detail("%s exceeds %d bytes", name, limit).
			Build()
	}
	return data, nil
}

// Detect reports the compression container of data from its magic bytes.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	default:
		return None
	}
}

// Decompress expands gzip or zstd data and returns anything else unchanged.
func Decompress(data []byte) ([]byte, error) {
	return decompress(data, Detect(data), DefaultMaxSize)
}

func decompress(data []byte, kind Compression, limit int64) ([]byte, error) {
	var (
		r   io.Reader
		err error
	)
	switch kind {
	case Gzip:
		var zr *gzip.Reader
		if zr, err = gzip.NewReader(bytes.NewReader(data)); err != nil {
			return nil, errors.Load("gzip header", err)
		}
		defer zr.Close()
		r = zr
	case Zstd:
		var zr *zstd.Decoder
		if zr, err = zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1)); err != nil {
			return nil, errors.Load("zstd header", err)
		}
		defer zr.Close()
		r = zr
	default:
		return data, nil
	}

	out, err := readLimited(r, limit, string(kind)+" stream")
	if err != nil {
		return nil, err
	}
	return out, nil
}
