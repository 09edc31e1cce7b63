package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wdm0006/parquetize/pkg/table"
)

type NumStats struct {
	Count int     `json:"count" yaml:"count"`
	Nulls int     `json:"nulls" yaml:"nulls"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Sum   float64 `json:"sum" yaml:"sum"`
}

func (n *NumStats) Mean() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Sum / float64(n.Count)
}

type BoolStats struct {
	Count int `json:"count" yaml:"count"`
	Nulls int `json:"nulls" yaml:"nulls"`
	True  int `json:"true" yaml:"true"`
	False int `json:"false" yaml:"false"`
}

type StringStats struct {
	Count int
	Nulls int
	Freqs map[string]int
}

type ColumnProfile struct {
	Name string
	Kind table.Kind
	Num  *NumStats
	Bool *BoolStats
	Str  *StringStats
}

// Collector accumulates per-column statistics over one or more frames.
type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(schema table.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type}
		switch cs.Type {
		case table.KindFloat, table.KindInt:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		case table.KindBool:
			cp.Bool = &BoolStats{}
		default:
			cp.Str = &StringStats{Freqs: make(map[string]int)}
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

func (c *Collector) ConsumeFrame(f *table.Frame) {
	for ci := 0; ci < f.Cols(); ci++ {
		idx, ok := c.index[f.Column(ci).Name()]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		switch col := f.Column(ci).(type) {
		case *table.FloatColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				if !ok {
					cp.Num.Nulls++
					continue
				}
				cp.Num.add(v)
			}
		case *table.IntColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				if !ok {
					cp.Num.Nulls++
					continue
				}
				cp.Num.add(float64(v))
			}
		case *table.BoolColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				if !ok {
					cp.Bool.Nulls++
					continue
				}
				cp.Bool.Count++
				if v {
					cp.Bool.True++
				} else {
					cp.Bool.False++
				}
			}
		case *table.StringColumn:
			for i := 0; i < col.Len(); i++ {
				v, ok := col.Get(i)
				if !ok {
					cp.Str.Nulls++
					continue
				}
				cp.Str.Count++
				if c.topK > 0 {
					cp.Str.Freqs[v]++
				}
			}
		}
	}
}

func (n *NumStats) add(v float64) {
	n.Count++
	if v < n.Min {
		n.Min = v
	}
	if v > n.Max {
		n.Max = v
	}
	n.Sum += v
}

// ValueCount is one frequent string value.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// top returns the k most frequent values, ties broken by value.
func (s *StringStats) top(k int) []ValueCount {
	arr := make([]ValueCount, 0, len(s.Freqs))
	for v, n := range s.Freqs {
		arr = append(arr, ValueCount{v, n})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].Count != arr[j].Count {
			return arr[i].Count > arr[j].Count
		}
		return arr[i].Value < arr[j].Value
	})
	if k > 0 && k < len(arr) {
		arr = arr[:k]
	}
	return arr
}

func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.cols {
		fmt.Fprintf(&b, "- %s (%v): ", cp.Name, cp.Kind)
		switch {
		case cp.Num != nil:
			if cp.Num.Count == 0 {
				fmt.Fprintf(&b, "count=0 nulls=%d\n", cp.Num.Nulls)
				continue
			}
			fmt.Fprintf(&b, "count=%d nulls=%d min=%.6g max=%.6g mean=%.6g\n", cp.Num.Count, cp.Num.Nulls, cp.Num.Min, cp.Num.Max, cp.Num.Mean())
		case cp.Bool != nil:
			fmt.Fprintf(&b, "count=%d nulls=%d true=%d false=%d\n", cp.Bool.Count, cp.Bool.Nulls, cp.Bool.True, cp.Bool.False)
		default:
			fmt.Fprintf(&b, "count=%d nulls=%d\n", cp.Str.Count, cp.Str.Nulls)
			for _, vc := range cp.Str.top(c.topK) {
				fmt.Fprintf(&b, "  • %q: %d\n", vc.Value, vc.Count)
			}
		}
	}
	return b.String()
}

// Profile is the serialisable form of a Collector.
type Profile struct {
	Columns []Column `json:"columns" yaml:"columns"`
}

type Column struct {
	Name  string       `json:"name" yaml:"name"`
	Kind  string       `json:"kind" yaml:"kind"`
	Count int          `json:"count" yaml:"count"`
	Nulls int          `json:"nulls" yaml:"nulls"`
	Min   *float64     `json:"min,omitempty" yaml:"min,omitempty"`
	Max   *float64     `json:"max,omitempty" yaml:"max,omitempty"`
	Mean  *float64     `json:"mean,omitempty" yaml:"mean,omitempty"`
	True  *int         `json:"true,omitempty" yaml:"true,omitempty"`
	False *int         `json:"false,omitempty" yaml:"false,omitempty"`
	Top   []ValueCount `json:"top,omitempty" yaml:"top,omitempty"`
}

// MarshalJSON writes non-finite statistics as "+Inf", "-Inf" or "NaN",
// which encoding/json cannot represent as numbers.
func (c Column) MarshalJSON() ([]byte, error) {
	type plain Column
	return json.Marshal(struct {
		plain
		Min  any `json:"min,omitempty"`
		Max  any `json:"max,omitempty"`
		Mean any `json:"mean,omitempty"`
	}{plain(c), JSONFloat(c.Min), JSONFloat(c.Max), JSONFloat(c.Mean)})
}

// JSONFloat returns nil for a nil p, the value when finite, and its string
// form otherwise.
func JSONFloat(p *float64) any {
	if p == nil {
		return nil
	}
	if math.IsInf(*p, 0) || math.IsNaN(*p) {
		return strconv.FormatFloat(*p, 'g', -1, 64)
	}
	return *p
}

func (c *Collector) Report() Profile {
	out := Profile{Columns: make([]Column, 0, len(c.cols))}
	for _, cp := range c.cols {
		pc := Column{Name: cp.Name, Kind: cp.Kind.String()}
		switch {
		case cp.Num != nil:
			pc.Count, pc.Nulls = cp.Num.Count, cp.Num.Nulls
			if cp.Num.Count > 0 {
				lo, hi, mean := cp.Num.Min, cp.Num.Max, cp.Num.Mean()
				pc.Min, pc.Max, pc.Mean = &lo, &hi, &mean
			}
		case cp.Bool != nil:
			pc.Count, pc.Nulls = cp.Bool.Count, cp.Bool.Nulls
			t, f := cp.Bool.True, cp.Bool.False
			pc.True, pc.False = &t, &f
		default:
			pc.Count, pc.Nulls = cp.Str.Count, cp.Str.Nulls
			pc.Top = cp.Str.top(c.topK)
		}
		out.Columns = append(out.Columns, pc)
	}
	return out
}
