package parquetio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wdm0006/parquetize/pkg/table"
)

// WriteFile writes f to path with e, creating parent directories. A failed
// write leaves no partial file behind.
func WriteFile(e Engine, path string, f *table.Frame) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	w := bufio.NewWriter(out)
	if err := e.Encode(w, f); err != nil {
		return fmt.Errorf("%s encode: %w", e.Name(), err)
	}
	return w.Flush()
}

// ReadFile reads the Parquet file at path back into a frame with e.
func ReadFile(e Engine, path string) (*table.Frame, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()
	st, err := in.Stat()
	if err != nil {
		return nil, err
	}
	f, err := e.Decode(in, st.Size())
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", e.Name(), err)
	}
	return f, nil
}
