package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze CONV_ID",
	Short: "Summarize a conversation's duration, participants, and vocabulary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		conversationID := args[0]
		segments, err := store.QuerySegments(cmd.Context(), storage.Query{ConversationID: &conversationID})
		if err != nil {
			return fail(cmd, err)
		}

		result := analyzeConversation(segments)
		result.ConversationID = conversationID
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), result, "analyzed conversation %s (%d segment(s))", conversationID, result.SegmentCount)
	},
}
