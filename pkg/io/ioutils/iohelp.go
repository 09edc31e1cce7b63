package ioutils

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies a supported input compression.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	XZ
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

var extensions = map[string]Compression{
	".gz":  Gzip,
	".zst": Zstd,
	".xz":  XZ,
}

// CompressionFromExt maps a path's final extension to a Compression.
func CompressionFromExt(path string) Compression {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// sniff looks at the first bytes of the stream.
func sniff(b []byte) Compression {
	switch {
	case bytes.HasPrefix(b, gzipMagic):
		return Gzip
	case bytes.HasPrefix(b, zstdMagic):
		return Zstd
	case bytes.HasPrefix(b, xzMagic):
		return XZ
	}
	return None
}

// OpenMaybeCompressed opens a file path or stdin ("-") and returns a reader.
// Compressed input is detected by extension first, then by magic bytes.
func OpenMaybeCompressed(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return wrap(bufio.NewReader(os.Stdin), None, func() error { return nil })
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := wrap(bufio.NewReader(f), CompressionFromExt(path), f.Close)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rc, nil
}

func wrap(br *bufio.Reader, c Compression, closeFile func() error) (io.ReadCloser, error) {
	if c == None {
		if b, err := br.Peek(len(xzMagic)); err == nil || len(b) > 0 {
			c = sniff(b)
		}
	}
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return readCloser{Reader: zr, closeFn: func() error { _ = zr.Close(); return closeFile() }}, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return readCloser{Reader: dec, closeFn: func() error { dec.Close(); return closeFile() }}, nil
	case XZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return readCloser{Reader: xr, closeFn: closeFile}, nil
	}
	return readCloser{Reader: br, closeFn: closeFile}, nil
}

// ReadAll reads a whole, possibly compressed, input into memory.
func ReadAll(path string) ([]byte, error) {
	rc, err := OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// BaseName returns the file name without directory, compression suffix or
// data extension: "dir/x.csv.gz" -> "x".
func BaseName(path string) string {
	if path == "-" || path == "" {
		return "stdin"
	}
	name := filepath.Base(path)
	if CompressionFromExt(name) != None {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// CreateMaybeCompressed creates a file (or stdout if path is "-") and
// returns a writer. If the path ends in .gz, the writer is gzip compressed.
func CreateMaybeCompressed(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopWriteCloser{Writer: bufio.NewWriter(os.Stdout)}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if CompressionFromExt(path) == Gzip {
		zw := gzip.NewWriter(f)
		return writeCloser{Writer: zw, closeFn: func() error {
			err := zw.Close()
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		}}, nil
	}
	return writeCloser{Writer: bufio.NewWriter(f), closeFn: f.Close}, nil
}

type readCloser struct {
	io.Reader
	closeFn func() error
}

func (r readCloser) Close() error {
	if r.closeFn != nil {
		return r.closeFn()
	}
	return errors.New("no closeFn")
}

type writeCloser struct {
	io.Writer
	closeFn func() error
}

func (w writeCloser) Close() error {
	if bw, ok := w.Writer.(*bufio.Writer); ok {
		if err := bw.Flush(); err != nil {
			_ = w.closeFn()
			return err
		}
	}
	if w.closeFn != nil {
		return w.closeFn()
	}
	return errors.New("no closeFn")
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error {
	if bw, ok := n.Writer.(*bufio.Writer); ok {
		return bw.Flush()
	}
	return nil
}
