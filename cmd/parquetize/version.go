package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "parquetize %s (%s)\n", version, runtime.Version())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "engines: %v\n", parquetio.Registered())
		},
	}
}
