package jsonlio

import (
	"bufio"
	"encoding/json"

	iox "github.com/wdm0006/parquetize/pkg/io/ioutils"
)

// WriteAll writes one JSON object per line to path ("-" for stdout, ".gz"
// for gzip), creating parent directories.
func WriteAll[T any](path string, recs []T) (err error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return w.Flush()
}
