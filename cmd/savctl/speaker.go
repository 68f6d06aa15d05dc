package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/speaker"
)

var speakerCmd = &cobra.Command{
	Use:   "speaker",
	Short: "Manage speaker identities",
}

var speakerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known speakers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		id := speaker.NewIdentifier(store.DB())
		speakers, err := id.ListSpeakers(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), speakers, "%d speaker(s)", len(speakers))
	},
}

var speakerShowCmd = &cobra.Command{
	Use:   "show SPEAKER_ID",
	Short: "Show a single speaker's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		id := speaker.NewIdentifier(store.DB())
		speakers, err := id.ListSpeakers(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		for _, s := range speakers {
			if s.ID == args[0] {
				return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), s, "speaker %s", s.ID)
			}
		}
		return fail(cmd, fmt.Errorf("speaker %s not found", args[0]))
	},
}

var speakerCreateName string

var speakerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new speaker profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		var name *string
		if speakerCreateName != "" {
			name = &speakerCreateName
		}

		id := speaker.NewIdentifier(store.DB())
		speakerID, err := id.CreateSpeaker(cmd.Context(), name, nil)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), map[string]string{"speaker_id": speakerID}, "created speaker %s", speakerID)
	},
}

var speakerDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List speaker pairs whose voice embeddings look like the same person",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		id := speaker.NewIdentifier(store.DB())
		if err := id.LoadEmbeddings(cmd.Context()); err != nil {
			return fail(cmd, err)
		}
		pairs := id.FindPotentialDuplicates()
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), pairs, "%d potential duplicate pair(s)", len(pairs))
	},
}

var speakerMergeCmd = &cobra.Command{
	Use:   "merge PRIMARY_ID SECONDARY_ID",
	Short: "Merge a secondary speaker's history into a primary speaker, deleting the secondary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		id := speaker.NewIdentifier(store.DB())
		if err := id.MergeSpeakers(cmd.Context(), args[0], args[1]); err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), nil, "merged %s into %s", args[1], args[0])
	},
}

func init() {
	speakerCreateCmd.Flags().StringVar(&speakerCreateName, "name", "", "speaker display name")
	speakerCmd.AddCommand(speakerListCmd, speakerShowCmd, speakerCreateCmd, speakerDuplicatesCmd, speakerMergeCmd)
}
