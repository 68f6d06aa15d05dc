// Command captured is the capture daemon CLI: it starts and stops the
// screen/audio ingest loop, and reads back what it has recorded without
// going through the RPC surface. Grounded on the teacher's
// backend/platform/cmd/server/main.go bootstrap (load config, open the
// store, wire the orchestrator) and teradata-labs-loom's cobra-based
// subcommand layout (cmd/looms/root.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var (
	outputFormat string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:           "captured",
	Short:         "Screen and audio capture daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, ocrCmd, listCmd, searchCmd, configCmd, cleanupCmd, exportCmd)
}

func format() cliutil.Format {
	if outputFormat == "json" {
		return cliutil.FormatJSON
	}
	return cliutil.FormatText
}

func fail(cmd *cobra.Command, err error, suggestions ...string) error {
	cliutil.PrintError(cmd.OutOrStdout(), cmd.ErrOrStderr(), format(), err, suggestions...)
	os.Exit(1)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
