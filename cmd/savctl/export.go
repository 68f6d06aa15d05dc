package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/cliutil"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export CONV_ID",
	Short: "Export a conversation to JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		data, err := store.ExportConversation(cmd.Context(), args[0])
		if err != nil {
			return fail(cmd, err)
		}

		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "encode exported conversation"))
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, encoded, 0o644); err != nil {
				return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "write export output"))
			}
			return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), data, "exported conversation %s to %s", args[0], exportOutput)
		}
		_, err = cmd.OutOrStdout().Write(append(encoded, '\n'))
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (prints to stdout if unset)")
}
