package main

import (
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func newEnginesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List parquet engines and which one would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefs := a.cfg.Engines
			if len(prefs) == 0 {
				prefs = parquetio.DefaultPreference
			}
			// compiled-in engines outside the preference are listed last
			prefs = slices.Clone(prefs)
			for _, name := range parquetio.Registered() {
				if !slices.Contains(prefs, name) {
					prefs = append(prefs, name)
				}
			}
			selected, err := parquetio.SelectEngine(a.cfg.Engines)
			name := ""
			if err == nil {
				name = selected.Name()
			}
			renderEngines(cmd.OutOrStdout(), parquetio.ProbeAll(prefs), name)
			return err
		},
	}
}

func renderEngines(w io.Writer, results []parquetio.ProbeResult, selected string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Engine", "Compiled", "Status", "Selected"})
	for _, r := range results {
		status := "ok"
		switch {
		case !r.Compiled:
			status = "not compiled in"
		case r.Err != nil:
			status = r.Err.Error()
		}
		mark := ""
		if r.Name == selected {
			mark = "*"
		}
		t.AppendRow(table.Row{r.Name, r.Compiled, status, mark})
	}
	t.Render()
}
