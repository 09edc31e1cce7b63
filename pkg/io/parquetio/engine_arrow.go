//go:build !noarrow

package parquetio

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/wdm0006/parquetize/pkg/table"
)

func init() { Register(arrowEngine{}) }

// arrowEngine goes through Arrow records and pqarrow.
type arrowEngine struct{}

const arrowRowGroupLen = 64 * 1024

func (arrowEngine) Name() string { return "arrow" }

func arrowType(k table.Kind) (arrow.DataType, error) {
	switch k {
	case table.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case table.KindInt:
		return arrow.PrimitiveTypes.Int64, nil
	case table.KindFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case table.KindString:
		return arrow.BinaryTypes.String, nil
	}
	return nil, fmt.Errorf("unsupported kind %v", k)
}

func (arrowEngine) Encode(w io.Writer, f *table.Frame) error {
	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, f.Cols())
	for i, cs := range f.Schema().Columns {
		dt, err := arrowType(cs.Type)
		if err != nil {
			return fmt.Errorf("column %q: %w", cs.Name, err)
		}
		fields[i] = arrow.Field{Name: cs.Name, Type: dt, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for i := 0; i < f.Cols(); i++ {
		switch col := f.Column(i).(type) {
		case *table.BoolColumn:
			fb := b.Field(i).(*array.BooleanBuilder)
			for r := 0; r < col.Len(); r++ {
				if v, ok := col.Get(r); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *table.IntColumn:
			fb := b.Field(i).(*array.Int64Builder)
			for r := 0; r < col.Len(); r++ {
				if v, ok := col.Get(r); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *table.FloatColumn:
			fb := b.Field(i).(*array.Float64Builder)
			for r := 0; r < col.Len(); r++ {
				if v, ok := col.Get(r); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		case *table.StringColumn:
			fb := b.Field(i).(*array.StringBuilder)
			for r := 0; r < col.Len(); r++ {
				if v, ok := col.Get(r); ok {
					fb.Append(v)
				} else {
					fb.AppendNull()
				}
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	return pqarrow.WriteTable(tbl, w, arrowRowGroupLen, props, pqarrow.DefaultWriterProps())
}

func (arrowEngine) Decode(r io.ReaderAt, size int64) (*table.Frame, error) {
	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), io.NewSectionReader(r, 0, size), nil, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	cols := make([]table.Column, tbl.NumCols())
	for i := range cols {
		c := tbl.Column(i)
		col, err := arrowColumn(c.Name(), c.DataType())
		if err != nil {
			return nil, err
		}
		for _, chunk := range c.Data().Chunks() {
			appendArrowChunk(col, chunk)
		}
		cols[i] = col
	}
	return table.FromColumns(cols...)
}

func arrowColumn(name string, dt arrow.DataType) (table.Column, error) {
	switch dt.ID() {
	case arrow.BOOL:
		return table.NewBoolColumn(name, 0), nil
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return table.NewIntColumn(name, 0), nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return table.NewFloatColumn(name, 0), nil
	default:
		return table.NewStringColumn(name, 0), nil
	}
}

func appendArrowChunk(col table.Column, chunk arrow.Array) {
	for r := 0; r < chunk.Len(); r++ {
		if chunk.IsNull(r) {
			col.AppendNull()
			continue
		}
		switch c := col.(type) {
		case *table.BoolColumn:
			c.Append(chunk.(*array.Boolean).Value(r))
		case *table.IntColumn:
			c.Append(arrowInt(chunk, r))
		case *table.FloatColumn:
			switch a := chunk.(type) {
			case *array.Float32:
				c.Append(float64(a.Value(r)))
			case *array.Float64:
				c.Append(a.Value(r))
			}
		case *table.StringColumn:
			c.Append(chunk.ValueStr(r))
		}
	}
}

func arrowInt(chunk arrow.Array, r int) int64 {
	switch a := chunk.(type) {
	case *array.Int8:
		return int64(a.Value(r))
	case *array.Int16:
		return int64(a.Value(r))
	case *array.Int32:
		return int64(a.Value(r))
	case *array.Uint8:
		return int64(a.Value(r))
	case *array.Uint16:
		return int64(a.Value(r))
	case *array.Uint32:
		return int64(a.Value(r))
	default:
		return chunk.(*array.Int64).Value(r)
	}
}
