package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/speaker"
	"github.com/watchloop/observatory/internal/storage"
	"github.com/watchloop/observatory/internal/stt"
)

var (
	storeInput        string
	storeConversation string
	storeTitle        string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Store a transcription (one stt.Result per line) into a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if storeInput != "" {
			f, err := os.Open(storeInput)
			if err != nil {
				return fail(cmd, fmt.Errorf("open --input: %w", err))
			}
			defer f.Close()
			r = f
		}

		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		conversationID := storeConversation
		stored := 0
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var result stt.Result
			if err := json.Unmarshal([]byte(line), &result); err != nil {
				return fail(cmd, fmt.Errorf("parse transcription line: %w", err))
			}

			if conversationID == "" {
				var title *string
				if storeTitle != "" {
					title = &storeTitle
				}
				id, err := store.CreateConversation(cmd.Context(), title, nil)
				if err != nil {
					return fail(cmd, err)
				}
				conversationID = id
			}

			for _, seg := range result.Segments {
				speakerID := "unknown"
				if match, ok := speaker.IdentifyByText(seg.Text); ok {
					speakerID = match.SpeakerID
				}
				_, err := store.StoreSegment(cmd.Context(), conversationID, storage.Segment{
					Timestamp:   time.Now().UTC(),
					Speaker:     speakerID,
					AudioSource: "file",
					Text:        seg.Text,
					StartTime:   seg.StartTime,
					EndTime:     seg.EndTime,
					Confidence:  seg.Confidence,
				})
				if err != nil {
					return fail(cmd, err)
				}
				stored++
			}
		}
		if err := scanner.Err(); err != nil {
			return fail(cmd, fmt.Errorf("read transcription input: %w", err))
		}

		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(),
			map[string]any{"conversation_id": conversationID, "segments_stored": stored},
			"stored %d segment(s) in conversation %s", stored, conversationID)
	},
}

func init() {
	storeCmd.Flags().StringVarP(&storeInput, "input", "i", "", "input file (reads stdin if not set)")
	storeCmd.Flags().StringVarP(&storeConversation, "conversation", "c", "", "conversation id to append to (creates new if unset)")
	storeCmd.Flags().StringVarP(&storeTitle, "title", "t", "", "title for a newly created conversation")
}
