package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var (
	searchLimit     int
	searchThreshold float64
	searchSpeaker   string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search across all conversations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		segments, err := store.TextSearch(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return fail(cmd, err)
		}

		filtered := segments[:0]
		for _, seg := range segments {
			if searchSpeaker != "" && seg.Speaker != searchSpeaker {
				continue
			}
			if seg.Confidence != nil && float64(*seg.Confidence) < searchThreshold {
				continue
			}
			filtered = append(filtered, seg)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), filtered, "%d result(s) for %q", len(filtered), args[0])
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "maximum results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0.0, "minimum segment confidence")
	searchCmd.Flags().StringVar(&searchSpeaker, "speaker", "", "speaker id filter")
}
