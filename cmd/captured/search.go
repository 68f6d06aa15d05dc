package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search on-screen text captured so far",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		lines, err := store.SearchFrameText(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), lines, "%d match(es) for %q", len(lines), args[0])
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum matches to return")
}
