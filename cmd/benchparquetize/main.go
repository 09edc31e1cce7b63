// Command benchparquetize measures encode throughput of each parquet engine
// on a synthetic table.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/pflag"

	"github.com/wdm0006/parquetize/pkg/io/parquetio"
	"github.com/wdm0006/parquetize/pkg/table"
)

type genOptions struct {
	rows, floatCols, intCols, stringCols int
	missing                              float64
	seed                                 int64
}

// generate builds a frame with the requested column mix. Each cell is null
// with probability o.missing.
func generate(o genOptions) (*table.Frame, error) {
	rnd := rand.New(rand.NewSource(o.seed))
	var cols []table.ColumnSchema
	for i := 0; i < o.floatCols; i++ {
		cols = append(cols, table.ColumnSchema{Name: fmt.Sprintf("f%d", i), Type: table.KindFloat})
	}
	for i := 0; i < o.intCols; i++ {
		cols = append(cols, table.ColumnSchema{Name: fmt.Sprintf("i%d", i), Type: table.KindInt})
	}
	for i := 0; i < o.stringCols; i++ {
		cols = append(cols, table.ColumnSchema{Name: fmt.Sprintf("s%d", i), Type: table.KindString})
	}
	f, err := table.NewFrame(table.Schema{Columns: cols})
	if err != nil {
		return nil, err
	}
	words := []string{"São Paulo", "Rio de Janeiro", "Belo Horizonte", "Curitiba", "Recife"}
	for i := 0; i < o.rows; i++ {
		f.AppendNullRow()
		for _, cs := range cols {
			if rnd.Float64() < o.missing {
				continue
			}
			var v any
			switch cs.Type {
			case table.KindFloat:
				v = rnd.Float64() * 100
			case table.KindInt:
				v = int64(rnd.Intn(1000))
			default:
				v = words[rnd.Intn(len(words))]
			}
			if err := f.SetCell(i, cs.Name, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

type result struct {
	Engine     string  `json:"engine"`
	Rows       int     `json:"rows"`
	ElapsedMS  int64   `json:"elapsed_ms"`
	RowsPerSec float64 `json:"rows_per_sec"`
	Bytes      int     `json:"bytes"`
	AllocBytes uint64  `json:"mem_total_alloc_bytes"`
	GCNum      uint32  `json:"gc_num"`
	Err        string  `json:"error,omitempty"`
}

func bench(e parquetio.Engine, f *table.Frame) result {
	runtime.GC()
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	var buf bytes.Buffer
	start := time.Now()
	err := e.Encode(&buf, f)
	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	r := result{
		Engine:     e.Name(),
		Rows:       f.Rows(),
		ElapsedMS:  elapsed.Milliseconds(),
		Bytes:      buf.Len(),
		AllocBytes: after.TotalAlloc - before.TotalAlloc,
		GCNum:      after.NumGC - before.NumGC,
	}
	if elapsed > 0 {
		r.RowsPerSec = float64(f.Rows()) / elapsed.Seconds()
	}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

func render(w io.Writer, results []result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)
	t.AppendHeader(prettytable.Row{"Engine", "Rows", "Elapsed", "Rows/s", "Size", "Alloc MB", "GC", "Error"})
	for _, r := range results {
		t.AppendRow(prettytable.Row{r.Engine, r.Rows, time.Duration(r.ElapsedMS) * time.Millisecond,
			fmt.Sprintf("%.0f", r.RowsPerSec), r.Bytes, r.AllocBytes / 1024 / 1024, r.GCNum, r.Err})
	}
	t.Render()
	return nil
}

func main() {
	fs := pflag.NewFlagSet("benchparquetize", pflag.ExitOnError)
	var o genOptions
	fs.IntVar(&o.rows, "rows", 1_000_000, "rows to generate")
	fs.IntVar(&o.floatCols, "float-cols", 4, "number of float columns")
	fs.IntVar(&o.intCols, "int-cols", 2, "number of int columns")
	fs.IntVar(&o.stringCols, "string-cols", 2, "number of string columns")
	fs.Float64Var(&o.missing, "missing", 0.05, "probability of a null cell")
	fs.Int64Var(&o.seed, "seed", 42, "random seed")
	engines := fs.StringSlice("engines", nil, "engines to run (default: all compiled in)")
	jsonOut := fs.Bool("json", false, "emit JSON summary")
	_ = fs.Parse(os.Args[1:])

	f, err := generate(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	names := *engines
	if len(names) == 0 {
		names = parquetio.Registered()
	}
	var results []result
	for _, name := range names {
		e, ok := parquetio.Lookup(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "engine %q not compiled in\n", name)
			os.Exit(1)
		}
		results = append(results, bench(e, f))
	}
	if err := render(os.Stdout, results, *jsonOut); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
