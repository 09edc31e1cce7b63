// Package ingest turns delimited text files of unknown encoding and delimiter
// into verified Parquet files.
//
// Each input goes through Detecting (ordered candidates, first success wins),
// Fallback when every candidate fails, Writing and Verifying. A fatal error
// on one input halts the whole run.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/wdm0006/parquetize/pkg/charset"
	"github.com/wdm0006/parquetize/pkg/io/csvio"
	"github.com/wdm0006/parquetize/pkg/io/ioutils"
	"github.com/wdm0006/parquetize/pkg/io/parquetio"
	"github.com/wdm0006/parquetize/pkg/table"
)

// DefaultOutputDir is where converted files go unless configured otherwise.
var DefaultOutputDir = filepath.Join("public", "parquet")

// Fallback is the candidate used once detection is exhausted.
var Fallback = Candidate{Encoding: charset.UTF8, Delimiter: ';'}

// Ingestor converts inputs with one engine chosen up front.
type Ingestor struct {
	Engine     parquetio.Engine
	Candidates []Candidate // nil = DefaultCandidates()
	OutputDir  string
	// CSV carries header and null handling; delimiter and strictness are
	// set per attempt.
	CSV    csvio.ReaderOptions
	Logger *slog.Logger
	Out    io.Writer // progress lines
	RunID  string
}

// New returns an Ingestor writing into DefaultOutputDir with headers on.
func New(engine parquetio.Engine) *Ingestor {
	return &Ingestor{
		Engine:    engine,
		OutputDir: DefaultOutputDir,
		CSV:       csvio.ReaderOptions{HasHeader: true},
		Out:       io.Discard,
	}
}

func (in *Ingestor) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return in.Logger
}

func (in *Ingestor) out() io.Writer {
	if in.Out == nil {
		return io.Discard
	}
	return in.Out
}

func (in *Ingestor) candidates() []Candidate {
	if in.Candidates == nil {
		return DefaultCandidates()
	}
	return in.Candidates
}

// Attempt is one failed candidate and why.
type Attempt struct {
	Candidate Candidate
	Err       error
}

// Detection describes how an input was parsed.
type Detection struct {
	Candidate Candidate
	Delimiter rune // effective delimiter after sniffing
	Fallback  bool
	Replaced  int // bytes substituted by the fallback decoder
	Attempts  []Attempt
	Repairs   string // parser repair counters, if any
}

func (in *Ingestor) read(path string) ([]byte, error) {
	raw, err := ioutils.ReadAll(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	if len(raw) == 0 {
		return nil, &IOError{Path: path, Err: ErrEmptyInput}
	}
	return raw, nil
}

// ParseWithCandidates reads path once and tries candidates in order. Decode
// and structural errors only advance to the next candidate.
func (in *Ingestor) ParseWithCandidates(path string, candidates []Candidate) (*table.Frame, Detection, error) {
	raw, err := in.read(path)
	if err != nil {
		return nil, Detection{}, err
	}
	f, det, err := in.detect(path, raw, candidates)
	if err != nil {
		return nil, det, err
	}
	fmt.Fprintf(in.out(), "[OK] %s read (encoding=%s, sep=%s)\n", path, det.Candidate.Encoding, det.Candidate.DelimiterLabel())
	return f, det, nil
}

func (in *Ingestor) detect(path string, raw []byte, candidates []Candidate) (*table.Frame, Detection, error) {
	log := in.logger()
	var det Detection
	for _, c := range candidates {
		text, err := charset.Decode(c.Encoding, raw)
		if err == nil {
			opt := in.CSV
			opt.Delimiter = c.Delimiter
			opt.Strict = true
			var f *table.Frame
			var r *csvio.Reader
			f, r, err = csvio.ReadFrame(bytes.NewReader(text), opt)
			if err == nil {
				det.Candidate = c
				det.Delimiter = r.Delimiter()
				det.Repairs = r.Warnings()
				log.Debug("candidate accepted", "input", path, "candidate", c.String(), "rows", f.Rows(), "columns", f.Cols())
				return f, det, nil
			}
		}
		log.Debug("candidate rejected", "input", path, "candidate", c.String(), "err", err)
		det.Attempts = append(det.Attempts, Attempt{Candidate: c, Err: err})
	}
	var last error
	if n := len(det.Attempts); n > 0 {
		last = det.Attempts[n-1].Err
	}
	return nil, det, fmt.Errorf("%w: %d candidates tried, last error: %v", ErrDetectionExhausted, len(det.Attempts), last)
}

// ParseWithFallback is ParseWithCandidates with the configured candidates.
// When they are exhausted it decodes as UTF-8 with replacement and parses
// tolerantly with ';'. Only I/O problems and empty input fail.
func (in *Ingestor) ParseWithFallback(path string) (*table.Frame, Detection, error) {
	raw, err := in.read(path)
	if err != nil {
		return nil, Detection{}, err
	}
	f, det, err := in.detect(path, raw, in.candidates())
	if err == nil {
		fmt.Fprintf(in.out(), "[OK] %s read (encoding=%s, sep=%s)\n", path, det.Candidate.Encoding, det.Candidate.DelimiterLabel())
		return f, det, nil
	}
	if !errors.Is(err, ErrDetectionExhausted) {
		return nil, det, err
	}

	text, replaced := charset.DecodeReplacing(raw)
	opt := in.CSV
	opt.Delimiter = Fallback.Delimiter
	opt.Strict = false
	opt.LazyQuotes = true
	f, r, err := csvio.ReadFrame(bytes.NewReader(text), opt)
	if errors.Is(err, csvio.ErrNoHeader) {
		return nil, det, &IOError{Path: path, Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, det, &IOError{Path: path, Err: err}
	}
	det.Candidate = Fallback
	det.Delimiter = Fallback.Delimiter
	det.Fallback = true
	det.Replaced = replaced
	det.Repairs = r.Warnings()
	fmt.Fprintf(in.out(), "[WARN] %s: fallback utf-8 with replacement (%d bytes substituted), data may be corrupted\n", path, replaced)
	in.logger().Warn("detection exhausted, used fallback",
		"input", path, "attempts", len(det.Attempts), "replaced_bytes", replaced, "repairs", det.Repairs)
	return f, det, nil
}

// OutputPath maps an input path to <OutputDir>/<base>.parquet.
func (in *Ingestor) OutputPath(path string) string {
	dir := in.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	return filepath.Join(dir, ioutils.BaseName(path)+".parquet")
}

// Convert detects, parses, writes and verifies one input.
func (in *Ingestor) Convert(path string) (Result, error) {
	log := in.logger().With("input", path)
	f, det, err := in.ParseWithFallback(path)
	if err != nil {
		return Result{}, err
	}
	if det.Repairs != "" {
		log.Info("input repaired while parsing", "repairs", det.Repairs)
	}

	outPath := in.OutputPath(path)
	res, err := WriteColumnar(in.Engine, f, outPath)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(in.out(), "[OK] Parquet saved: %s (engine=%s)\n", outPath, in.Engine.Name())
	log.Debug("parquet written", "output", outPath, "rows", res.Rows, "columns", res.Columns)

	rep, err := VerifyColumnar(in.Engine, outPath)
	if err != nil {
		return Result{}, err
	}
	if rep.Rows != f.Rows() || !slices.Equal(rep.ColumnNames, f.Names()) {
		return Result{}, &VerifyError{Path: outPath, Engine: in.Engine.Name(),
			Err: fmt.Errorf("read back %d rows %v, wrote %d rows %v", rep.Rows, rep.ColumnNames, f.Rows(), f.Names())}
	}
	name := filepath.Base(outPath)
	if rep.Warning != "" {
		fmt.Fprintf(in.out(), "[WARN] %s\n", rep.Warning)
		log.Warn("empty result", "output", outPath)
	} else {
		fmt.Fprintf(in.out(), "[OK] %s validated: %d rows, %d columns.\n", name, rep.Rows, rep.Columns)
	}

	res.RunID = in.RunID
	res.Input = path
	res.Encoding = det.Candidate.Encoding
	res.Delimiter = DelimiterLabel(det.Delimiter)
	res.Fallback = det.Fallback
	res.Replaced = det.Replaced
	res.Repairs = det.Repairs
	res.Warning = rep.Warning
	return res, nil
}

// Run converts paths one after another and stops at the first fatal error,
// returning the results produced so far. ctx is checked between files. Inputs
// sharing a base name map to the same output; the later one wins and a
// warning is emitted.
func (in *Ingestor) Run(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, 0, len(paths))
	written := make(map[string]string, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		out := in.OutputPath(p)
		if prev, dup := written[out]; dup {
			fmt.Fprintf(in.out(), "[WARN] %s overwrites %s, already written from %s\n", p, out, prev)
			in.logger().Warn("output path repeats in run", "input", p, "output", out, "previous_input", prev)
		}
		written[out] = p
		res, err := in.Convert(p)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
