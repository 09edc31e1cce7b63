package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wdm0006/parquetize/pkg/ingest"
	"github.com/wdm0006/parquetize/pkg/profile"
)

// inspection is what inspect reports for one input.
type inspection struct {
	Input     string           `json:"input" yaml:"input"`
	Encoding  string           `json:"encoding" yaml:"encoding"`
	Delimiter string           `json:"delimiter" yaml:"delimiter"`
	Fallback  bool             `json:"fallback" yaml:"fallback"`
	Replaced  int              `json:"replaced_bytes,omitempty" yaml:"replaced_bytes,omitempty"`
	Repairs   string           `json:"repairs,omitempty" yaml:"repairs,omitempty"`
	Rows      int              `json:"rows" yaml:"rows"`
	Columns   []profile.Column `json:"columns" yaml:"columns"`
	Header    []string         `json:"header,omitempty" yaml:"header,omitempty"`
	Head      [][]any          `json:"head,omitempty" yaml:"head,omitempty"`
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		format string
		head   int
		top    int
	)
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Show detected encoding, delimiter and column profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}
			in, err := a.newIngestor()
			if err != nil {
				return err
			}
			// progress lines must not mix with json or yaml on stdout
			in.Out = cmd.ErrOrStderr()

			var reports []inspection
			for _, path := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				r, err := inspectFile(in, path, head, top)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			return renderInspections(cmd.OutOrStdout(), format, reports)
		},
	}
	addParseFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table|json|yaml)")
	cmd.Flags().IntVar(&head, "head", 0, "also show the first N rows")
	cmd.Flags().IntVar(&top, "top", 5, "most frequent values listed per string column")
	return cmd
}

func inspectFile(in *ingest.Ingestor, path string, head, top int) (inspection, error) {
	f, det, err := in.ParseWithFallback(path)
	if err != nil {
		return inspection{}, err
	}
	c := profile.NewCollector(f.Schema(), top)
	c.ConsumeFrame(f)
	r := inspection{
		Input:     path,
		Encoding:  string(det.Candidate.Encoding),
		Delimiter: ingest.DelimiterLabel(det.Delimiter),
		Fallback:  det.Fallback,
		Replaced:  det.Replaced,
		Repairs:   det.Repairs,
		Rows:      f.Rows(),
		Columns:   c.Report().Columns,
	}
	if head > 0 {
		r.Header = f.Names()
		for i := 0; i < head && i < f.Rows(); i++ {
			r.Head = append(r.Head, f.Row(i))
		}
	}
	return r, nil
}

func renderInspections(w io.Writer, format string, reports []inspection) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonHead(reports))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	}
	for i, r := range reports {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		renderInspectionTable(w, r)
	}
	return nil
}

// jsonHead copies reports with non-finite head cells as strings.
func jsonHead(reports []inspection) []inspection {
	out := make([]inspection, len(reports))
	for i, r := range reports {
		if len(r.Head) > 0 {
			head := make([][]any, len(r.Head))
			for j, row := range r.Head {
				cells := make([]any, len(row))
				for k, v := range row {
					if f, ok := v.(float64); ok {
						v = profile.JSONFloat(&f)
					}
					cells[k] = v
				}
				head[j] = cells
			}
			r.Head = head
		}
		out[i] = r
	}
	return out
}

func renderInspectionTable(w io.Writer, r inspection) {
	_, _ = fmt.Fprintf(w, "%s: encoding=%s sep=%s rows=%d columns=%d", r.Input, r.Encoding, r.Delimiter, r.Rows, len(r.Columns))
	if r.Fallback {
		_, _ = fmt.Fprintf(w, " fallback (%d bytes substituted)", r.Replaced)
	}
	_, _ = fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Kind", "Count", "Nulls", "Min", "Max", "Mean", "Top"})
	for _, c := range r.Columns {
		t.AppendRow(table.Row{c.Name, c.Kind, c.Count, c.Nulls, num(c.Min), num(c.Max), num(c.Mean), topValues(c)})
	}
	t.Render()

	if len(r.Head) == 0 {
		return
	}
	h := table.NewWriter()
	h.SetOutputMirror(w)
	h.SetStyle(table.StyleLight)
	header := make(table.Row, len(r.Header))
	for i, n := range r.Header {
		header[i] = n
	}
	h.AppendHeader(header)
	for _, row := range r.Head {
		cells := make(table.Row, len(row))
		for i, v := range row {
			if v == nil {
				v = ""
			}
			cells[i] = v
		}
		h.AppendRow(cells)
	}
	h.Render()
}

func num(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("%.6g", *p)
}

func topValues(c profile.Column) string {
	if c.True != nil {
		return fmt.Sprintf("true=%d false=%d", *c.True, *c.False)
	}
	parts := make([]string, 0, len(c.Top))
	for _, vc := range c.Top {
		parts = append(parts, fmt.Sprintf("%s (%d)", vc.Value, vc.Count))
	}
	return strings.Join(parts, ", ")
}
