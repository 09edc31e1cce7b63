package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/parquetize/pkg/table"
)

func TestNewFrameRejectsDuplicateNames(t *testing.T) {
	s := table.Schema{Columns: []table.ColumnSchema{
		{Name: "a", Type: table.KindInt, Nullable: true},
		{Name: "a", Type: table.KindString, Nullable: true},
	}}
	_, err := table.NewFrame(s)
	require.ErrorIs(t, err, table.ErrDuplicateColumn)
}

func TestNewFrameRejectsInvalidKind(t *testing.T) {
	_, err := table.NewFrame(table.Schema{Columns: []table.ColumnSchema{{Name: "a"}}})
	require.Error(t, err)
}

func TestSetCellAndRow(t *testing.T) {
	s := table.Schema{Columns: []table.ColumnSchema{
		{Name: "x", Type: table.KindFloat, Nullable: true},
		{Name: "n", Type: table.KindInt, Nullable: true},
		{Name: "s", Type: table.KindString, Nullable: true},
		{Name: "b", Type: table.KindBool, Nullable: true},
	}}
	f, err := table.NewFrame(s)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		f.AppendNullRow()
	}
	require.NoError(t, f.SetCell(0, "x", 1.5))
	require.NoError(t, f.SetCell(0, "n", int64(7)))
	require.NoError(t, f.SetCell(0, "s", "foo"))
	require.NoError(t, f.SetCell(0, "b", true))
	// row 1 left nulls

	assert.Equal(t, []any{1.5, int64(7), "foo", true}, f.Row(0))
	assert.Equal(t, []any{nil, nil, nil, nil}, f.Row(1))
	assert.Equal(t, 2, f.Rows())
	assert.Equal(t, 4, f.Cols())
	assert.Equal(t, []string{"x", "n", "s", "b"}, f.Names())

	assert.Error(t, f.SetCell(0, "missing", 1))
	assert.Error(t, f.SetCell(0, "n", "not an int"))
}

func TestFromColumns(t *testing.T) {
	ids := table.NewIntColumn("id", 0)
	ids.Append(1)
	ids.Append(2)
	names := table.NewStringColumn("name", 0)
	names.Append("a")
	names.AppendNull()

	f, err := table.FromColumns(ids, names)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Rows())
	col, ok := f.ColumnByName("name")
	require.True(t, ok)
	assert.True(t, col.IsNull(1))
	assert.Equal(t, table.KindString, f.Schema().Columns[1].Type)

	short := table.NewBoolColumn("flag", 1)
	_, err = table.FromColumns(ids, short)
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "int", table.KindInt.String())
	assert.Equal(t, "invalid", table.KindInvalid.String())
}
