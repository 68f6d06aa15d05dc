// Command savctl manages the relational store directly: ingesting
// transcripts, querying/searching segments, conversation bookkeeping,
// and speaker identity maintenance. Grounded on
// original_source/crates/savant-db/src/main.rs's Commands enum (§6) and
// teradata-labs-loom's cobra subcommand layout, matching cmd/captured's
// shared conventions via internal/cliutil.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/storage"
)

var (
	outputFormat string
	dbPath       string
)

var rootCmd = &cobra.Command{
	Use:           "savctl",
	Short:         "Manage the observatory's transcript and speaker database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "database file path (defaults to the configured storage path)")

	rootCmd.AddCommand(storeCmd, queryCmd, searchCmd, listCmd, statsCmd, exportCmd, createCmd, analyzeCmd, speakerCmd, topicCmd)
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

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	path := dbPath
	if path == "" {
		path = config.Load().Storage.DatabasePath
	}
	return storage.Open(cmd.Context(), path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
