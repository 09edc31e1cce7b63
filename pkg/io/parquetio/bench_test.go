package parquetio

import (
	"io"
	"testing"

	"github.com/wdm0006/parquetize/pkg/table"
)

func makeFrame(rows int) *table.Frame {
	s := table.Schema{Columns: []table.ColumnSchema{{Name: "a", Type: table.KindFloat, Nullable: true}, {Name: "b", Type: table.KindInt, Nullable: true}}}
	f, _ := table.NewFrame(s)
	for i := 0; i < rows; i++ {
		f.AppendNullRow()
		_ = f.SetCell(i, "a", float64(i%100))
		_ = f.SetCell(i, "b", int64(i%10))
	}
	return f
}

func BenchmarkEncode(b *testing.B) {
	f := makeFrame(50000)
	for _, name := range Registered() {
		e, _ := Lookup(name)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := e.Encode(io.Discard, f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
