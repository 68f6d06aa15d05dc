package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/storage"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Inspect conversation vocabulary",
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations with their top keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		conversations, err := store.ListConversations(cmd.Context(), nil)
		if err != nil {
			return fail(cmd, err)
		}

		type row struct {
			ConversationID string   `json:"conversation_id"`
			Keywords       []string `json:"keywords"`
		}
		rows := make([]row, 0, len(conversations))
		for _, c := range conversations {
			segments, err := store.QuerySegments(cmd.Context(), storage.Query{ConversationID: &c.ID})
			if err != nil {
				return fail(cmd, err)
			}
			rows = append(rows, row{ConversationID: c.ID, Keywords: analyzeConversation(segments).TopKeywords})
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), rows, "%d conversation(s)", len(rows))
	},
}

var topicExtractCmd = &cobra.Command{
	Use:   "extract CONV_ID",
	Short: "Extract the top keywords for one conversation",
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
		keywords := analyzeConversation(segments).TopKeywords
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), keywords, "%d keyword(s)", len(keywords))
	},
}

func init() {
	topicCmd.AddCommand(topicListCmd, topicExtractCmd)
}
