package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/storage"
)

var (
	queryConversation string
	querySpeaker      string
	queryText         string
	queryStart        string
	queryEnd          string
	queryLimit        int64
	queryOffset       int64
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query transcription segments by structured filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		q := storage.Query{Limit: &queryLimit, Offset: &queryOffset}
		if queryConversation != "" {
			q.ConversationID = &queryConversation
		}
		if querySpeaker != "" {
			q.Speaker = &querySpeaker
		}
		if queryText != "" {
			q.TextContains = &queryText
		}
		if queryStart != "" {
			t, err := time.Parse(time.RFC3339, queryStart)
			if err != nil {
				return fail(cmd, err)
			}
			q.StartTime = &t
		}
		if queryEnd != "" {
			t, err := time.Parse(time.RFC3339, queryEnd)
			if err != nil {
				return fail(cmd, err)
			}
			q.EndTime = &t
		}

		segments, err := store.QuerySegments(cmd.Context(), q)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), segments, "%d segment(s)", len(segments))
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryConversation, "conversation", "", "conversation id filter")
	queryCmd.Flags().StringVar(&querySpeaker, "speaker", "", "speaker id filter")
	queryCmd.Flags().StringVar(&queryText, "text", "", "substring filter over segment text")
	queryCmd.Flags().StringVar(&queryStart, "start", "", "start time filter, RFC3339")
	queryCmd.Flags().StringVar(&queryEnd, "end", "", "end time filter, RFC3339")
	queryCmd.Flags().Int64Var(&queryLimit, "limit", 50, "maximum rows")
	queryCmd.Flags().Int64Var(&queryOffset, "offset", 0, "pagination offset")
}
