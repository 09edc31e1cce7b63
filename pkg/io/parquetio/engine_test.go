package parquetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/parquetize/pkg/table"
)

func sampleFrame(t *testing.T) *table.Frame {
	t.Helper()
	ok := table.NewBoolColumn("ok", 0)
	id := table.NewIntColumn("id", 0)
	score := table.NewFloatColumn("score", 0)
	name := table.NewStringColumn("Unnamed: 3", 0)
	for i := 0; i < 5; i++ {
		ok.Append(i%2 == 0)
		id.Append(int64(i) - 2)
		if i == 3 {
			score.AppendNull()
			name.AppendNull()
			continue
		}
		score.Append(float64(i) / 4)
		name.Append("row " + string(rune('a'+i)))
	}
	f, err := table.FromColumns(ok, id, score, name)
	require.NoError(t, err)
	return f
}

func TestRegisteredOrder(t *testing.T) {
	names := Registered()
	require.NotEmpty(t, names)
	assert.Equal(t, DefaultPreference[:len(names)], names)
}

func TestRoundTripEveryEngine(t *testing.T) {
	want := sampleFrame(t)
	for _, name := range Registered() {
		t.Run(name, func(t *testing.T) {
			e, ok := Lookup(name)
			require.True(t, ok)
			path := filepath.Join(t.TempDir(), "nested", "out.parquet")
			require.NoError(t, WriteFile(e, path, want))

			got, err := ReadFile(e, path)
			require.NoError(t, err)
			assert.Equal(t, want.Names(), got.Names())
			assert.Equal(t, want.Rows(), got.Rows())
			assert.Equal(t, want.Schema(), got.Schema())
			for r := 0; r < want.Rows(); r++ {
				assert.Equal(t, want.Row(r), got.Row(r), "row %d", r)
			}
		})
	}
}

func TestRoundTripZeroRows(t *testing.T) {
	f, err := table.NewFrame(table.Schema{Columns: []table.ColumnSchema{
		{Name: "id", Type: table.KindString, Nullable: true},
		{Name: "score", Type: table.KindString, Nullable: true},
	}})
	require.NoError(t, err)
	for _, name := range Registered() {
		t.Run(name, func(t *testing.T) {
			e, _ := Lookup(name)
			path := filepath.Join(t.TempDir(), "empty.parquet")
			require.NoError(t, WriteFile(e, path, f))
			got, err := ReadFile(e, path)
			require.NoError(t, err)
			assert.Zero(t, got.Rows())
			assert.Equal(t, []string{"id", "score"}, got.Names())
		})
	}
}

func TestProbeAll(t *testing.T) {
	results := ProbeAll(append(Registered(), "fastparquet"))
	for _, res := range results[:len(results)-1] {
		assert.True(t, res.OK(), "%s: %v", res.Name, res.Err)
	}
	last := results[len(results)-1]
	assert.False(t, last.Compiled)
	assert.False(t, last.OK())
}

func TestSelectEngine(t *testing.T) {
	e, err := SelectEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, Registered()[0], e.Name())

	e, err = SelectEngine([]string{"fastparquet", "xitongsys"})
	if _, compiled := Lookup("xitongsys"); compiled {
		require.NoError(t, err)
		assert.Equal(t, "xitongsys", e.Name())
	}

	_, err = SelectEngine([]string{"fastparquet", "pyarrow"})
	require.ErrorIs(t, err, ErrNoEngineAvailable)
	assert.Contains(t, err.Error(), "fastparquet: not compiled in")
}

func TestXitongsysRejectsTagBreakingNames(t *testing.T) {
	e, ok := Lookup("xitongsys")
	if !ok {
		t.Skip("xitongsys engine not compiled in")
	}
	c := table.NewIntColumn("a,b", 0)
	c.Append(1)
	f, err := table.FromColumns(c)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bad.parquet")
	require.Error(t, WriteFile(e, path, f))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "partial file should be removed")
}

func TestReadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	require.NoError(t, os.WriteFile(path, []byte("not parquet at all"), 0o644))
	for _, name := range Registered() {
		e, _ := Lookup(name)
		_, err := ReadFile(e, path)
		assert.Error(t, err, name)
	}
}
