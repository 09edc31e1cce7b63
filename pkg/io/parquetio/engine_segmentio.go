//go:build !nosegmentio

package parquetio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	parquet "github.com/segmentio/parquet-go"

	"github.com/wdm0006/parquetize/pkg/table"
)

func init() { Register(segmentioEngine{}) }

// Group fields are sorted by name, so the frame's column order is kept in
// the file's key/value metadata under this key.
const columnOrderKey = "parquetize.columns"

const segmentioBatch = 1024

// segmentioEngine writes rows of leveled values against a parquet.Group schema.
type segmentioEngine struct{}

func (segmentioEngine) Name() string { return "segmentio" }

func segmentioNode(k table.Kind) (parquet.Node, error) {
	switch k {
	case table.KindBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType)), nil
	case table.KindInt:
		return parquet.Optional(parquet.Int(64)), nil
	case table.KindFloat:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType)), nil
	case table.KindString:
		return parquet.Optional(parquet.String()), nil
	}
	return nil, fmt.Errorf("unsupported kind %v", k)
}

func (segmentioEngine) Encode(w io.Writer, f *table.Frame) error {
	group := parquet.Group{}
	for _, cs := range f.Schema().Columns {
		node, err := segmentioNode(cs.Type)
		if err != nil {
			return fmt.Errorf("column %q: %w", cs.Name, err)
		}
		group[cs.Name] = node
	}
	schema := parquet.NewSchema("parquetize", group)
	order, err := json.Marshal(f.Names())
	if err != nil {
		return err
	}
	pw := parquet.NewWriter(w, schema,
		parquet.KeyValueMetadata(columnOrderKey, string(order)),
		parquet.Compression(&parquet.Snappy),
	)

	leaves, err := segmentioLeaves(schema, f)
	if err != nil {
		return err
	}
	batch := make([]parquet.Row, 0, segmentioBatch)
	for r := 0; r < f.Rows(); r++ {
		row := make(parquet.Row, len(leaves))
		for c, col := range leaves {
			if v := col.Value(r); v != nil {
				row[c] = parquet.ValueOf(v).Level(0, 1, c)
			} else {
				row[c] = parquet.Value{}.Level(0, 0, c)
			}
		}
		batch = append(batch, row)
		if len(batch) == cap(batch) {
			if _, err := pw.WriteRows(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := pw.WriteRows(batch); err != nil {
			return err
		}
	}
	return pw.Close()
}

// segmentioLeaves maps each leaf index of schema to its frame column.
func segmentioLeaves(schema *parquet.Schema, f *table.Frame) ([]table.Column, error) {
	fields := schema.Fields()
	leaves := make([]table.Column, len(fields))
	for i, fld := range fields {
		col, ok := f.ColumnByName(fld.Name())
		if !ok {
			return nil, fmt.Errorf("schema column %q not in frame", fld.Name())
		}
		leaves[i] = col
	}
	return leaves, nil
}

func (segmentioEngine) Decode(r io.ReaderAt, size int64) (*table.Frame, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, err
	}
	fields := pf.Schema().Fields()
	cols := make([]table.Column, len(fields))
	for i, fld := range fields {
		if !fld.Leaf() {
			return nil, fmt.Errorf("column %q: nested columns are not supported", fld.Name())
		}
		switch fld.Type().Kind() {
		case parquet.Boolean:
			cols[i] = table.NewBoolColumn(fld.Name(), 0)
		case parquet.Int32, parquet.Int64:
			cols[i] = table.NewIntColumn(fld.Name(), 0)
		case parquet.Float, parquet.Double:
			cols[i] = table.NewFloatColumn(fld.Name(), 0)
		default:
			cols[i] = table.NewStringColumn(fld.Name(), 0)
		}
	}

	buf := make([]parquet.Row, segmentioBatch)
	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, buf, cols); err != nil {
			return nil, err
		}
	}
	return table.FromColumns(inFileOrder(pf, cols)...)
}

func readRowGroup(rg parquet.RowGroup, buf []parquet.Row, cols []table.Column) error {
	rows := rg.Rows()
	defer func() { _ = rows.Close() }()
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for _, v := range row {
				appendSegmentioValue(cols[v.Column()], v)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func appendSegmentioValue(col table.Column, v parquet.Value) {
	if v.IsNull() {
		col.AppendNull()
		return
	}
	switch c := col.(type) {
	case *table.BoolColumn:
		c.Append(v.Boolean())
	case *table.IntColumn:
		if v.Kind() == parquet.Int32 {
			c.Append(int64(v.Int32()))
		} else {
			c.Append(v.Int64())
		}
	case *table.FloatColumn:
		if v.Kind() == parquet.Float {
			c.Append(float64(v.Float()))
		} else {
			c.Append(v.Double())
		}
	case *table.StringColumn:
		if v.Kind() == parquet.ByteArray {
			c.Append(string(v.ByteArray()))
		} else {
			c.Append(v.String())
		}
	}
}

// inFileOrder restores the column order recorded at write time, if any.
func inFileOrder(pf *parquet.File, cols []table.Column) []table.Column {
	raw, ok := pf.Lookup(columnOrderKey)
	if !ok {
		return cols
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil || len(names) != len(cols) {
		return cols
	}
	byName := make(map[string]table.Column, len(cols))
	for _, c := range cols {
		byName[c.Name()] = c
	}
	out := make([]table.Column, 0, len(cols))
	for _, n := range names {
		c, ok := byName[n]
		if !ok {
			return cols
		}
		out = append(out, c)
	}
	return out
}
