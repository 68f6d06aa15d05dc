package main

import (
	"context"
	"fmt"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/rpc"
	"github.com/watchloop/observatory/internal/storage"
)

const promptSummarizeConversation = "summarize-conversation"

func registerPrompts(server *rpc.Server, store *storage.Store) {
	server.RegisterPrompt(rpc.Prompt{
		Name:        promptSummarizeConversation,
		Description: "Draft a summary prompt for one recorded conversation, given its id",
	})
	server.SetPromptGetter(promptGetter(store))
}

func promptGetter(store *storage.Store) rpc.PromptGetter {
	return func(ctx context.Context, name string, args map[string]string) (string, error) {
		if name != promptSummarizeConversation {
			return "", apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeInternal, "unknown prompt %q", name)
		}

		conversationID := args["conversation_id"]
		if conversationID == "" {
			return "", apperrors.New(apperrors.KindSurfaced, apperrors.CodeInternal, "conversation_id is required")
		}

		export, err := store.ExportConversation(ctx, conversationID)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf(
			"Summarize the following recorded conversation in a few sentences, noting the participants and what was decided:\n\n%v",
			export,
		), nil
	}
}
