//go:build !noxitongsys

package parquetio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	pw "github.com/xitongsys/parquet-go/writer"

	"github.com/wdm0006/parquetize/pkg/table"
)

func init() { Register(xitongsysEngine{}) }

// xitongsysEngine writes JSON records against a JSON schema.
type xitongsysEngine struct{}

var parMagic = []byte("PAR1")

func (xitongsysEngine) Name() string { return "xitongsys" }

func parquetSchemaJSON(s table.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	internal := make(map[string]string, len(s.Columns))
	for _, cs := range s.Columns {
		// tags are comma separated and space trimmed
		if strings.ContainsAny(cs.Name, ",\t") || strings.TrimSpace(cs.Name) != cs.Name {
			return "", fmt.Errorf("column name %q cannot be represented in a schema tag", cs.Name)
		}
		in := common.StringToVariableName(cs.Name)
		if prev, dup := internal[in]; dup {
			return "", fmt.Errorf("column names %q and %q collide", prev, cs.Name)
		}
		internal[in] = cs.Name
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case table.KindFloat:
			tag += "DOUBLE"
		case table.KindInt:
			tag += "INT64"
		case table.KindBool:
			tag += "BOOLEAN"
		default:
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

func (xitongsysEngine) Encode(w io.Writer, f *table.Frame) error {
	schema, err := parquetSchemaJSON(f.Schema())
	if err != nil {
		return err
	}
	jw, err := pw.NewJSONWriterFromWriter(schema, w, 4)
	if err != nil {
		return fmt.Errorf("parquet writer init: %w", err)
	}
	names := f.Names()
	for r := 0; r < f.Rows(); r++ {
		rec := make(map[string]any, len(names))
		for c, v := range f.Row(r) {
			if v != nil {
				rec[names[c]] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		if err := jw.Write(string(b)); err != nil {
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	return jw.WriteStop()
}

func (xitongsysEngine) Decode(r io.ReaderAt, size int64) (*table.Frame, error) {
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || !bytes.HasPrefix(data, parMagic) || !bytes.HasSuffix(data, parMagic) {
		return nil, errors.New("not a parquet file")
	}
	pf, err := buffer.NewBufferFile(data)
	if err != nil {
		return nil, err
	}
	pr, err := reader.NewParquetColumnReader(pf, 1)
	if err != nil {
		return nil, err
	}
	defer pr.ReadStop()

	sh := pr.SchemaHandler
	var cols []table.Column
	for i := 1; i < len(sh.SchemaElements); i++ {
		el := sh.SchemaElements[i]
		name := sh.GetExName(i)
		if el.GetNumChildren() > 0 {
			return nil, fmt.Errorf("column %q: nested columns are not supported", name)
		}
		switch el.GetType() {
		case parquet.Type_BOOLEAN:
			cols = append(cols, table.NewBoolColumn(name, 0))
		case parquet.Type_INT32, parquet.Type_INT64:
			cols = append(cols, table.NewIntColumn(name, 0))
		case parquet.Type_FLOAT, parquet.Type_DOUBLE:
			cols = append(cols, table.NewFloatColumn(name, 0))
		default:
			cols = append(cols, table.NewStringColumn(name, 0))
		}
	}

	n := pr.GetNumRows()
	for c, col := range cols {
		if n == 0 {
			break
		}
		values, _, _, err := pr.ReadColumnByIndex(int64(c), n)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name(), err)
		}
		for _, v := range values {
			appendXitongsysValue(col, v)
		}
	}
	return table.FromColumns(cols...)
}

func appendXitongsysValue(col table.Column, v any) {
	if v == nil {
		col.AppendNull()
		return
	}
	switch c := col.(type) {
	case *table.BoolColumn:
		b, _ := v.(bool)
		c.Append(b)
	case *table.IntColumn:
		switch t := v.(type) {
		case int32:
			c.Append(int64(t))
		case int64:
			c.Append(t)
		default:
			c.AppendNull()
		}
	case *table.FloatColumn:
		switch t := v.(type) {
		case float32:
			c.Append(float64(t))
		case float64:
			c.Append(t)
		default:
			c.AppendNull()
		}
	case *table.StringColumn:
		if s, ok := v.(string); ok {
			c.Append(s)
		} else {
			c.Append(fmt.Sprint(v))
		}
	}
}
