package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show conversation statistics by speaker",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		stats, err := store.GetSpeakerStats(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), stats, "%d speaker(s)", len(stats))
	},
}
