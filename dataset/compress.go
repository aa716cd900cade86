package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression of a file.
type Compression uint8

const (
	// CompressionNone reads and writes plain text.
	CompressionNone Compression = iota
	// CompressionZSTD uses zstd frames (.zst).
	CompressionZSTD
	// CompressionLZ4 uses lz4 frames (.lz4).
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// CompressionFor picks the compression from the file suffix.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZSTD
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// NewReader wraps r with a decompressor for c. Closing the result does not close r.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with a compressor for c. Closing the result flushes the
// compressor but does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

type fileReader struct {
	io.ReadCloser
	f *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens path for reading, decompressing by suffix.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileReader{ReadCloser: rc, f: f}, nil
}

type fileWriter struct {
	io.WriteCloser
	f *os.File
}

func (w *fileWriter) Close() error {
	err := w.WriteCloser.Close()
	if serr := w.f.Sync(); err == nil {
		err = serr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create creates or truncates path for writing, compressing by suffix.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	wc, err := NewWriter(f, CompressionFor(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &fileWriter{WriteCloser: wc, f: f}, nil
}
