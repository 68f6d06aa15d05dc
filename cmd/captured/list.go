package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently captured frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		frames, err := store.RecentFrames(cmd.Context(), listLimit)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), frames, "%d frame(s)", len(frames))
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum frames to return")
}
