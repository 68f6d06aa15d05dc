package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var listLimit int64

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		conversations, err := store.ListConversations(cmd.Context(), &listLimit)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), conversations, "%d conversation(s)", len(conversations))
	},
}

func init() {
	listCmd.Flags().Int64Var(&listLimit, "limit", 20, "maximum conversations")
}
