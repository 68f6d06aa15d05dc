package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var cleanupOlderThanDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete high-frequency frames older than a retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		cutoff := time.Now().AddDate(0, 0, -cleanupOlderThanDays)
		deleted, err := store.CleanupOlderThan(cmd.Context(), cutoff)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), map[string]int64{"frames_deleted": deleted},
			"deleted %d frame(s) older than %d day(s)", deleted, cleanupOlderThanDays)
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupOlderThanDays, "older-than", 30, "retention window in days")
}
