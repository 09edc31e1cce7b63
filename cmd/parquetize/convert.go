package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/wdm0006/parquetize/internal/logging"
	"github.com/wdm0006/parquetize/pkg/ingest"
	"github.com/wdm0006/parquetize/pkg/io/jsonlio"
	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func newConvertCmd(a *app) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "convert [FILE...]",
		Short: "Convert files to Parquet",
		Long: `Convert each FILE (or the configured inputs) to <output_dir>/<name>.parquet.

Files are processed in order and the run stops at the first file that cannot
be read, written or verified. Use "-" to read standard input; .gz, .zst and
.xz inputs are decompressed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args, summary)
		},
	}
	addParseFlags(cmd)
	cmd.Flags().String("output-dir", "", "directory for .parquet files (default public/parquet)")
	cmd.Flags().String("manifest", "", `write one JSON line per converted file to PATH ("-" for stdout, ".gz" to compress)`)
	cmd.Flags().BoolVar(&summary, "summary", false, "print a table of converted files")
	return cmd
}

func (a *app) runConvert(cmd *cobra.Command, args []string, summary bool) error {
	inputs := args
	if len(inputs) == 0 {
		inputs = a.cfg.Inputs
	}
	if len(inputs) == 0 {
		return errors.New("no input files")
	}

	// engine first: nothing is read when no engine works
	engine, err := parquetio.SelectEngine(a.cfg.Engines)
	if err != nil {
		return err
	}
	in, err := a.newIngestor()
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log := logging.WithRun(a.logger, runID)
	in.Engine = engine
	in.Logger = log
	in.Out = cmd.OutOrStdout()
	in.RunID = runID

	log.Info("run started", "engine", engine.Name(), "inputs", len(inputs), "output_dir", in.OutputDir)
	results, err := in.Run(cmd.Context(), inputs)
	if err != nil {
		log.Error("run halted", "converted", len(results), "err", err)
		return err
	}

	if path := a.cfg.Manifest; path != "" {
		if err := jsonlio.WriteAll(path, results); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		log.Debug("manifest written", "path", path)
	}
	if summary {
		renderSummary(cmd.OutOrStdout(), results)
	}
	log.Info("run finished", "converted", len(results))
	return nil
}

func renderSummary(w io.Writer, results []ingest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Input", "Output", "Rows", "Columns", "Encoding", "Sep", "Fallback"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Input, r.Output, r.Rows, r.Columns, r.Encoding, r.Delimiter, r.Fallback})
	}
	t.Render()
}
