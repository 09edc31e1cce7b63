package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wdm0006/parquetize/internal/config"
	"github.com/wdm0006/parquetize/internal/logging"
	"github.com/wdm0006/parquetize/pkg/ingest"
)

// version is set at build time.
var version = "0.1.0-dev"

// app holds what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "parquetize",
		Short: "Convert delimited text files to Parquet",
		Long: `parquetize reads CSV-like files whose encoding and delimiter are unknown,
tries an ordered list of (encoding, delimiter) candidates, falls back to a
tolerant UTF-8 parse when none fits, and writes each file as Parquet before
reading it back to verify it.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, used, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if used != "" {
				a.logger.Debug("config loaded", "file", used)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./parquetize.yaml|yml|toml|json)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")
	pf.StringSlice("engines", nil, "parquet engine preference (default arrow,segmentio,xitongsys)")

	root.AddCommand(newConvertCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newEnginesCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// addParseFlags registers the flags shared by commands that parse inputs.
func addParseFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSlice("encodings", nil, "encodings to try, in order (default utf-8,utf-8-sig,windows-1252,latin-1)")
	fs.StringArray("delimiters", nil, "delimiter to try per encoding, repeatable: a character, tab or auto (default ; then , then auto)")
	fs.Bool("has-header", true, "first record holds the column names")
	fs.StringSlice("null-values", nil, "cell values read as null (default: common NA tokens and the empty string)")
}

// newIngestor builds an Ingestor from the loaded configuration.
func (a *app) newIngestor() (*ingest.Ingestor, error) {
	cands, err := ingest.BuildCandidates(a.cfg.Encodings, a.cfg.Delimiters)
	if err != nil {
		return nil, err
	}
	in := ingest.New(nil)
	in.Candidates = cands
	in.OutputDir = a.cfg.OutputDir
	in.CSV.HasHeader = a.cfg.HasHeader
	if len(a.cfg.NullValues) > 0 {
		in.CSV.NullValues = a.cfg.NullValues
	}
	in.Logger = a.logger
	return in, nil
}
