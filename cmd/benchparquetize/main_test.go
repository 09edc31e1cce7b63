package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func TestGenerate(t *testing.T) {
	f, err := generate(genOptions{rows: 50, floatCols: 1, intCols: 1, stringCols: 1, missing: 0, seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 50, f.Rows())
	assert.Equal(t, []string{"f0", "i0", "s0"}, f.Names())
	for i := 0; i < f.Rows(); i++ {
		for _, v := range f.Row(i) {
			assert.NotNil(t, v)
		}
	}

	g, err := generate(genOptions{rows: 50, floatCols: 1, intCols: 1, stringCols: 1, missing: 1, seed: 1})
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil, nil}, g.Row(0))
}

func TestBenchEveryEngine(t *testing.T) {
	f, err := generate(genOptions{rows: 200, floatCols: 2, intCols: 1, stringCols: 1, missing: 0.1, seed: 7})
	require.NoError(t, err)
	var results []result
	for _, name := range parquetio.Registered() {
		e, _ := parquetio.Lookup(name)
		r := bench(e, f)
		assert.Empty(t, r.Err, name)
		assert.Positive(t, r.Bytes, name)
		results = append(results, r)
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, results, true))
	var got []result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, len(results))

	buf.Reset()
	require.NoError(t, render(&buf, results, false))
	assert.NotEmpty(t, buf.String())
}
