package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/wdm0006/parquetize/pkg/table"
)

var (
	// ErrNoHeader is returned when the input holds no record to take column names from.
	ErrNoHeader = errors.New("csv: no header record")
	// ErrTooManyFields marks a data record wider than the header.
	ErrTooManyFields = errors.New("csv: record has more fields than the header")
)

// DefaultNullValues are the cell values read as null.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// ParseError is a structural problem found while reading records.
type ParseError struct {
	Record int // 1-based, header included
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("csv record %d: %v", e.Record, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// ReaderOptions controls header handling, delimiter and strictness.
type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff
	Strict     bool // if true, error on long records and malformed quoting
	LazyQuotes bool
	NullValues []string // nil = DefaultNullValues
}

// Reader parses delimited text into a table.Frame.
type Reader struct {
	r     *csv.Reader
	opt   ReaderOptions
	nulls map[string]struct{}
	buf   [][]string
	// repair/warning counters
	shortRecords int
	longRecords  int
	malformed    int
}

// NewReaderFrom constructs a Reader over decoded text. A zero Delimiter is
// sniffed from the first 4 KiB.
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	br := bufio.NewReaderSize(r, 4096)
	rr := csv.NewReader(br)
	rr.FieldsPerRecord = -1
	rr.LazyQuotes = opt.LazyQuotes
	if opt.Delimiter == 0 {
		sample, _ := br.Peek(4096)
		d, lazy := sniffDelimiterAndQuotes(sample)
		opt.Delimiter = d
		rr.LazyQuotes = rr.LazyQuotes || lazy
	}
	rr.Comma = opt.Delimiter
	nv := opt.NullValues
	if nv == nil {
		nv = DefaultNullValues
	}
	nulls := make(map[string]struct{}, len(nv))
	for _, v := range nv {
		nulls[v] = struct{}{}
	}
	return &Reader{r: rr, opt: opt, nulls: nulls}
}

// Delimiter reports the delimiter in use, after sniffing.
func (r *Reader) Delimiter() rune { return r.opt.Delimiter }

// ReadFrame is InferSchema followed by ReadAll.
func ReadFrame(in io.Reader, opt ReaderOptions) (*table.Frame, *Reader, error) {
	r := NewReaderFrom(in, opt)
	schema, _, err := r.InferSchema()
	if err != nil {
		return nil, r, err
	}
	f, err := r.ReadAll(schema)
	return f, r, err
}

// next returns the next record. Malformed records are errors in strict mode
// and skipped otherwise.
func (r *Reader) next(n int) ([]string, error) {
	for {
		rec, err := r.r.Read()
		if err == nil || err == io.EOF {
			return rec, err
		}
		var pe *csv.ParseError
		if !r.opt.Strict && errors.As(err, &pe) {
			r.malformed++
			continue
		}
		return nil, &ParseError{Record: n, Err: err}
	}
}

// InferSchema reads the header (if present) and every data record, and
// determines column kinds from all of them. The records are kept for ReadAll.
func (r *Reader) InferSchema() (table.Schema, []string, error) {
	first, err := r.next(1)
	if err == io.EOF {
		return table.Schema{}, nil, &ParseError{Record: 1, Err: ErrNoHeader}
	}
	if err != nil {
		return table.Schema{}, nil, err
	}
	var names []string
	if r.opt.HasHeader {
		names = headerNames(first)
	} else {
		names = make([]string, len(first))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
		r.buf = append(r.buf, first)
	}
	for n := 2; ; n++ {
		rec, err := r.next(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return table.Schema{}, nil, err
		}
		r.buf = append(r.buf, rec)
	}
	kinds := r.inferKinds(len(names))
	schema := table.Schema{Columns: make([]table.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = table.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	return schema, names, nil
}

// ReadAll converts the buffered records into a Frame.
func (r *Reader) ReadAll(schema table.Schema) (*table.Frame, error) {
	f, err := table.NewFrame(schema)
	if err != nil {
		return nil, err
	}
	ncol := len(schema.Columns)
	first := 2
	if !r.opt.HasHeader {
		first = 1
	}
	for i, rec := range r.buf {
		if len(rec) > ncol {
			r.longRecords++
			if r.opt.Strict {
				return nil, &ParseError{Record: first + i, Err: fmt.Errorf("%w: need %d fields, got %d", ErrTooManyFields, ncol, len(rec))}
			}
			rec = rec[:ncol]
		}
		if len(rec) < ncol {
			r.shortRecords++
		}
		f.AppendNullRow()
		row := f.Rows() - 1
		for c, cs := range schema.Columns {
			if c >= len(rec) || r.isNull(rec[c]) {
				continue
			}
			val := rec[c]
			switch cs.Type {
			case table.KindFloat:
				if x, ok := parseFloat(val); ok {
					_ = f.SetCell(row, cs.Name, x)
				}
			case table.KindInt:
				if x, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
					_ = f.SetCell(row, cs.Name, x)
				}
			case table.KindBool:
				_ = f.SetCell(row, cs.Name, strings.EqualFold(strings.TrimSpace(val), "true"))
			default:
				_ = f.SetCell(row, cs.Name, val)
			}
		}
	}
	r.buf = nil
	return f, nil
}

func (r *Reader) isNull(v string) bool {
	_, ok := r.nulls[v]
	return ok
}

func headerNames(rec []string) []string {
	raw := make([]string, len(rec))
	copy(raw, rec)
	// strip BOM on first header cell if present
	if len(raw) > 0 {
		raw[0] = strings.TrimPrefix(raw[0], "\ufeff")
	}
	for i, n := range raw {
		if n == "" {
			raw[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)
	out := make([]string, len(raw))
	for i, n := range raw {
		cur := n
		for used[cur] {
			suffix[n]++
			cur = n + "." + strconv.Itoa(suffix[n])
		}
		used[cur] = true
		out[i] = cur
	}
	return out
}

var (
	intre = regexp.MustCompile(`^[-+]?[0-9]+$`)
	numre = regexp.MustCompile(`^[-+]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][-+]?[0-9]+)?$`)
)

func parseFloat(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if !numre.MatchString(v) {
		switch strings.ToLower(strings.TrimLeft(v, "+-")) {
		case "inf", "infinity":
		default:
			return 0, false
		}
	}
	x, err := strconv.ParseFloat(v, 64)
	return x, err == nil
}

func (r *Reader) inferKinds(ncol int) []table.Kind {
	kinds := make([]table.Kind, ncol)
	for c := 0; c < ncol; c++ {
		seen, bools, ints, nums := 0, 0, 0, 0
		for _, row := range r.buf {
			if c >= len(row) || r.isNull(row[c]) {
				continue
			}
			seen++
			v := strings.TrimSpace(row[c])
			lv := strings.ToLower(v)
			switch {
			case lv == "true" || lv == "false":
				bools++
			case intre.MatchString(v):
				if _, err := strconv.ParseInt(v, 10, 64); err == nil {
					ints++
				}
				nums++
			default:
				if _, ok := parseFloat(v); ok {
					nums++
				}
			}
		}
		switch {
		case seen == 0:
			kinds[c] = table.KindString
		case bools == seen:
			kinds[c] = table.KindBool
		case ints == seen:
			kinds[c] = table.KindInt
		case nums == seen:
			kinds[c] = table.KindFloat
		default:
			kinds[c] = table.KindString
		}
	}
	return kinds
}

func sniffDelimiterAndQuotes(sample []byte) (rune, bool) {
	if len(sample) == 0 {
		return ',', false
	}
	candidates := []byte{',', '\t', ';', '|'}
	best := byte(',')
	bestCount := -1
	for _, c := range candidates {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	quoteCount := 0
	for _, b := range sample {
		if b == '"' {
			quoteCount++
		}
	}
	return rune(best), quoteCount > 0
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	if r.shortRecords == 0 && r.longRecords == 0 && r.malformed == 0 {
		return ""
	}
	parts := []string{}
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	if r.malformed > 0 {
		parts = append(parts, fmt.Sprintf("malformed_records=%d", r.malformed))
	}
	return strings.Join(parts, ", ")
}
