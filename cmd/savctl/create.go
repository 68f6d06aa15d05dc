package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var (
	createTitle   string
	createContext string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		var title, context *string
		if createTitle != "" {
			title = &createTitle
		}
		if createContext != "" {
			context = &createContext
		}

		id, err := store.CreateConversation(cmd.Context(), title, context)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), map[string]string{"conversation_id": id}, "created conversation %s", id)
	},
}

func init() {
	createCmd.Flags().StringVarP(&createTitle, "title", "t", "", "conversation title")
	createCmd.Flags().StringVarP(&createContext, "context", "c", "", "conversation context/description")
}
