package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdm0006/parquetize/pkg/charset"
	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func engine(t *testing.T) parquetio.Engine {
	t.Helper()
	e, err := parquetio.SelectEngine(nil)
	require.NoError(t, err)
	return e
}

func fixture(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newIngestor(t *testing.T) (*Ingestor, *bytes.Buffer) {
	t.Helper()
	in := New(engine(t))
	in.OutputDir = filepath.Join(t.TempDir(), "public", "parquet")
	var out bytes.Buffer
	in.Out = &out
	return in, &out
}

func TestDefaultCandidates(t *testing.T) {
	c := DefaultCandidates()
	require.Len(t, c, 12)
	assert.Equal(t, "utf-8/;", c[0].String())
	assert.Equal(t, "utf-8/,", c[1].String())
	assert.Equal(t, "utf-8/auto", c[2].String())
	assert.Equal(t, "utf-8-sig/;", c[3].String())
	assert.Equal(t, "latin-1/auto", c[11].String())
}

func TestBuildCandidates(t *testing.T) {
	c, err := BuildCandidates([]string{"cp1252"}, []string{"tab", "|", "auto"})
	require.NoError(t, err)
	assert.Equal(t, []Candidate{
		{Encoding: charset.Windows1252, Delimiter: '\t'},
		{Encoding: charset.Windows1252, Delimiter: '|'},
		{Encoding: charset.Windows1252, Delimiter: Auto},
	}, c)

	c, err = BuildCandidates(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCandidates(), c)

	_, err = BuildCandidates([]string{"utf-16"}, nil)
	assert.Error(t, err)
	_, err = BuildCandidates(nil, []string{";;"})
	assert.Error(t, err)
	_, err = BuildCandidates(nil, []string{`"`})
	assert.Error(t, err)
}

func TestFirstSuccessfulCandidateWins(t *testing.T) {
	in, out := newIngestor(t)

	// a comma file still parses under ';' as a single column
	f, det, err := in.ParseWithCandidates(fixture(t, "a.csv", "a,b\n1,2\n"), DefaultCandidates())
	require.NoError(t, err)
	assert.Equal(t, "utf-8/;", det.Candidate.String())
	assert.Empty(t, det.Attempts)
	assert.Equal(t, []string{"a,b"}, f.Names())

	// a record wider than the ';' header rejects the first candidate
	f, det, err = in.ParseWithCandidates(fixture(t, "b.csv", "a,b\n1;2,3\n"), DefaultCandidates())
	require.NoError(t, err)
	assert.Equal(t, "utf-8/,", det.Candidate.String())
	require.Len(t, det.Attempts, 1)
	assert.Equal(t, []string{"a", "b"}, f.Names())
	assert.Contains(t, out.String(), "read (encoding=utf-8, sep=,)")
}

func TestWindows1252Detected(t *testing.T) {
	in, _ := newIngestor(t)
	f, det, err := in.ParseWithCandidates(fixture(t, "w.csv", "id;nome\n1;Jos\xe9\n2;Ana\n"), DefaultCandidates())
	require.NoError(t, err)
	assert.Equal(t, "windows-1252/;", det.Candidate.String())
	assert.Len(t, det.Attempts, 6)
	assert.Equal(t, "José", f.Row(0)[1])
}

func TestBOMStrippedByFirstCandidate(t *testing.T) {
	in, _ := newIngestor(t)
	f, det, err := in.ParseWithCandidates(fixture(t, "bom.csv", "\xef\xbb\xbfid;score\n1;2\n"), DefaultCandidates())
	require.NoError(t, err)
	assert.Equal(t, charset.UTF8, det.Candidate.Encoding)
	assert.Equal(t, []string{"id", "score"}, f.Names())
}

func TestDetectionExhausted(t *testing.T) {
	in, _ := newIngestor(t)
	_, det, err := in.ParseWithCandidates(fixture(t, "bad.csv", "a;b\n1;2;3\n4,5,6\n"), DefaultCandidates())
	require.ErrorIs(t, err, ErrDetectionExhausted)
	assert.Len(t, det.Attempts, 12)
}

func TestFallbackAlwaysYieldsFrame(t *testing.T) {
	for name, content := range map[string]string{
		"inconsistent": "a;b\n1;2;3\n4,5,6\n",
		"binary":       "\xff\xfe\x00",
		"single":       "x",
		"unterminated": `"unterminated`,
		"bad quotes":   "a;b\n\"1;2\n3;4;5\n",
	} {
		in, _ := newIngestor(t)
		f, _, err := in.ParseWithFallback(fixture(t, "in.csv", content))
		require.NoError(t, err, name)
		require.NotNil(t, f, name)
		assert.Positive(t, f.Cols(), name)
	}
}

func TestFallbackCountsReplacements(t *testing.T) {
	in, out := newIngestor(t)
	in.Candidates = []Candidate{{Encoding: charset.UTF8, Delimiter: ';'}}
	f, det, err := in.ParseWithFallback(fixture(t, "r.csv", "a;b\n\xff;2\n"))
	require.NoError(t, err)
	assert.True(t, det.Fallback)
	assert.Equal(t, 1, det.Replaced)
	assert.Equal(t, "\ufffd", f.Row(0)[0])
	assert.Contains(t, out.String(), "fallback utf-8 with replacement (1 bytes substituted)")
}

func TestEmptyAndMissingInput(t *testing.T) {
	in, _ := newIngestor(t)
	for _, content := range []string{"", "\n\n"} {
		_, _, err := in.ParseWithFallback(fixture(t, "empty.csv", content))
		var ioe *IOError
		require.ErrorAs(t, err, &ioe)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	_, _, err := in.ParseWithFallback(filepath.Join(t.TempDir(), "missing.csv"))
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutputPath(t *testing.T) {
	in := New(nil)
	assert.Equal(t, filepath.Join("public", "parquet", "RESULTADOS_2024.parquet"), in.OutputPath("data/RESULTADOS_2024.csv"))
	assert.Equal(t, filepath.Join("public", "parquet", "x.parquet"), in.OutputPath("x.csv.gz"))
	in.OutputDir = "out"
	assert.Equal(t, filepath.Join("out", "stdin.parquet"), in.OutputPath("-"))
}

func TestVerifyZeroRows(t *testing.T) {
	in, out := newIngestor(t)
	res, err := in.Convert(fixture(t, "header_only.csv", "id;score\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Rows)
	assert.Equal(t, 2, res.Columns)
	assert.Equal(t, "header_only.parquet is empty after conversion.", res.Warning)
	assert.Contains(t, out.String(), "[WARN] header_only.parquet is empty after conversion.")

	rep, err := VerifyColumnar(in.Engine, res.Output)
	require.NoError(t, err)
	assert.True(t, rep.OK)
	assert.NotEmpty(t, rep.Warning)
}

func TestVerifyFailure(t *testing.T) {
	p := fixture(t, "broken.parquet", "PAR1 but not really")
	_, err := VerifyColumnar(engine(t), p)
	var ve *VerifyError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, p, ve.Path)
}

func TestWriteFailure(t *testing.T) {
	e, ok := parquetio.Lookup("xitongsys")
	if !ok {
		t.Skip("xitongsys engine not compiled in")
	}
	in, _ := newIngestor(t)
	in.Engine = e
	_, err := in.Convert(fixture(t, "names.csv", "a,b;c\n1;2\n"))
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "xitongsys", we.Engine)
}

func TestRunHaltsOnFirstFatalError(t *testing.T) {
	in, _ := newIngestor(t)
	good := fixture(t, "good.csv", "id;score\n1;10\n")
	missing := filepath.Join(t.TempDir(), "missing.csv")
	later := fixture(t, "later.csv", "id;score\n2;20\n")

	results, err := in.Run(context.Background(), []string{good, missing, later})
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	require.Len(t, results, 1)
	assert.Equal(t, good, results[0].Input)
	_, statErr := os.Stat(in.OutputPath(later))
	assert.True(t, os.IsNotExist(statErr), "later input must not be converted")
}

func TestRunWarnsOnRepeatedOutput(t *testing.T) {
	in, out := newIngestor(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "a", "x.csv")
	second := filepath.Join(dir, "b", "x.csv")
	for _, p := range []string{first, second} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("id;score\n1;10\n"), 0o644))
	}

	results, err := in.Run(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Output, results[1].Output)
	assert.Contains(t, out.String(), "[WARN] "+second+" overwrites "+results[0].Output+", already written from "+first)
	assert.Equal(t, 1, strings.Count(out.String(), "overwrites"))
}

func TestRunChecksContextBetweenFiles(t *testing.T) {
	in, _ := newIngestor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := in.Run(ctx, []string{fixture(t, "a.csv", "a\n1\n")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
