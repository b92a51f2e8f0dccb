package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is a codec selected by a location's extension.
type Compression int

// Supported codecs.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// CompressionFor returns the codec implied by location.
func CompressionFor(location string) Compression {
	lower := strings.ToLower(location)
	switch {
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".gzip"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".zst"), strings.HasSuffix(lower, ".zstd"):
		return CompressionZstd
	}
	return CompressionNone
}

// TrimCompression strips a compression extension from location.
func TrimCompression(location string) string {
	if CompressionFor(location) == CompressionNone {
		return location
	}
	return location[:strings.LastIndex(location, ".")]
}

func decompress(location string, r io.ReadCloser) (io.ReadCloser, error) {
	switch CompressionFor(location) {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", location, err)
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, r.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", location, err)
		}
		return &stackedReader{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, r.Close}}, nil
	}
	return r, nil
}

func compress(location string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch CompressionFor(location) {
	case CompressionGzip:
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip %s: %w", location, err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip %s: %w", location, err)
		}
	case CompressionZstd:
		zw, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", location, err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("zstd %s: %w", location, err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zstd %s: %w", location, err)
		}
	default:
		return data, nil
	}
	return buf.Bytes(), nil
}

// stackedReader closes a decoder and the stream beneath it.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
