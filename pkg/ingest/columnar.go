package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/wdm0006/parquetize/pkg/charset"
	"github.com/wdm0006/parquetize/pkg/io/parquetio"
	"github.com/wdm0006/parquetize/pkg/table"
)

// Result describes one converted input. It is also a manifest line.
type Result struct {
	RunID     string           `json:"run_id,omitempty"`
	Input     string           `json:"input"`
	Output    string           `json:"output"`
	Engine    string           `json:"engine"`
	Rows      int              `json:"rows"`
	Columns   int              `json:"columns"`
	Encoding  charset.Encoding `json:"encoding"`
	Delimiter string           `json:"delimiter"`
	Fallback  bool             `json:"fallback"`
	Replaced  int              `json:"replaced_bytes,omitempty"`
	Repairs   string           `json:"repairs,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

// Report is what VerifyColumnar found in a written file.
type Report struct {
	OK          bool
	Rows        int
	Columns     int
	ColumnNames []string
	Warning     string
}

// WriteColumnar serialises f to outPath with engine.
func WriteColumnar(engine parquetio.Engine, f *table.Frame, outPath string) (Result, error) {
	if err := parquetio.WriteFile(engine, outPath, f); err != nil {
		return Result{}, &WriteError{Path: outPath, Engine: engine.Name(), Err: err}
	}
	return Result{Output: outPath, Engine: engine.Name(), Rows: f.Rows(), Columns: f.Cols()}, nil
}

// VerifyColumnar reads path back with engine. An empty table is OK but
// carries a warning.
func VerifyColumnar(engine parquetio.Engine, path string) (Report, error) {
	f, err := parquetio.ReadFile(engine, path)
	if err != nil {
		return Report{}, &VerifyError{Path: path, Engine: engine.Name(), Err: err}
	}
	rep := Report{OK: true, Rows: f.Rows(), Columns: f.Cols(), ColumnNames: f.Names()}
	if rep.Rows == 0 || rep.Columns == 0 {
		rep.Warning = fmt.Sprintf("%s is empty after conversion.", filepath.Base(path))
	}
	return rep, nil
}
