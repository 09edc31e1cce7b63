// Package parquetio serialises frames to Parquet through interchangeable
// engines, one per Parquet library, and picks the first engine that works.
package parquetio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/wdm0006/parquetize/pkg/table"
)

// ErrNoEngineAvailable is returned when no engine in the preference list is
// compiled in and working.
var ErrNoEngineAvailable = errors.New("no parquet engine available")

// Engine encodes and decodes whole frames as Parquet files.
type Engine interface {
	Name() string
	Encode(w io.Writer, f *table.Frame) error
	Decode(r io.ReaderAt, size int64) (*table.Frame, error)
}

// DefaultPreference is the order engines are tried in.
var DefaultPreference = []string{"arrow", "segmentio", "xitongsys"}

var (
	mu      sync.RWMutex
	engines = map[string]Engine{}
)

// Register makes an engine available by name. Engines register themselves
// from init, so the set is fixed once main starts.
func Register(e Engine) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := engines[e.Name()]; dup {
		panic("parquetio: engine registered twice: " + e.Name())
	}
	engines[e.Name()] = e
}

// Lookup returns the engine registered under name.
func Lookup(name string) (Engine, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := engines[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Registered lists engine names, DefaultPreference first.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(engines))
	for _, n := range DefaultPreference {
		if _, ok := engines[n]; ok {
			out = append(out, n)
		}
	}
	var rest []string
	for n := range engines {
		if !contains(DefaultPreference, n) {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ProbeResult is the outcome of checking one engine.
type ProbeResult struct {
	Name     string
	Compiled bool
	Err      error
}

func (p ProbeResult) OK() bool { return p.Compiled && p.Err == nil }

// probeFrame is a one-row table covering every column kind.
func probeFrame() *table.Frame {
	b := table.NewBoolColumn("flag", 0)
	b.Append(true)
	n := table.NewIntColumn("id", 0)
	n.Append(1)
	x := table.NewFloatColumn("score", 0)
	x.AppendNull()
	s := table.NewStringColumn("name", 0)
	s.Append("açaí")
	f, err := table.FromColumns(b, n, x, s)
	if err != nil {
		panic(err)
	}
	return f
}

// Probe round-trips a one-row frame through e in memory.
func Probe(e Engine) error {
	want := probeFrame()
	var buf bytes.Buffer
	if err := e.Encode(&buf, want); err != nil {
		return fmt.Errorf("probe encode: %w", err)
	}
	got, err := e.Decode(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return fmt.Errorf("probe decode: %w", err)
	}
	if !reflect.DeepEqual(got.Names(), want.Names()) || got.Rows() != want.Rows() {
		return fmt.Errorf("probe mismatch: got %v x %d rows", got.Names(), got.Rows())
	}
	if !reflect.DeepEqual(got.Row(0), want.Row(0)) {
		return fmt.Errorf("probe mismatch: got %v, want %v", got.Row(0), want.Row(0))
	}
	return nil
}

// ProbeAll checks every name in prefs, in order.
func ProbeAll(prefs []string) []ProbeResult {
	out := make([]ProbeResult, 0, len(prefs))
	for _, name := range prefs {
		e, ok := Lookup(name)
		res := ProbeResult{Name: name, Compiled: ok}
		if ok {
			res.Err = Probe(e)
		}
		out = append(out, res)
	}
	return out
}

// SelectEngine returns the first engine in prefs that is compiled in and
// passes Probe. An empty prefs means DefaultPreference.
func SelectEngine(prefs []string) (Engine, error) {
	if len(prefs) == 0 {
		prefs = DefaultPreference
	}
	var reasons []string
	for _, res := range ProbeAll(prefs) {
		switch {
		case res.OK():
			e, _ := Lookup(res.Name)
			return e, nil
		case !res.Compiled:
			reasons = append(reasons, res.Name+": not compiled in")
		default:
			reasons = append(reasons, res.Name+": "+res.Err.Error())
		}
	}
	return nil, fmt.Errorf("%w (%s)", ErrNoEngineAvailable, strings.Join(reasons, "; "))
}
