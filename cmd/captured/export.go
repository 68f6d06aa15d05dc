package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/apperrors"
)

var (
	exportSession string
	exportFormat  string
	exportOutput  string
)

// exportCmd's own --format (json|frames) names the export's output
// shape, distinct from the root --format (json|text) that frames the
// result envelope everywhere else; it is declared as a command-local
// flag precisely so it shadows the persistent one only here.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a session's captured frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		frames, err := store.SessionFrames(cmd.Context(), exportSession)
		if err != nil {
			return fail(cmd, err)
		}

		if err := os.MkdirAll(exportOutput, 0o755); err != nil {
			return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "create export output directory"))
		}

		switch exportFormat {
		case "json":
			data, err := json.MarshalIndent(frames, "", "  ")
			if err != nil {
				return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "encode exported frames"))
			}
			path := filepath.Join(exportOutput, exportSession+".json")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "write exported frames"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d frame(s) to %s\n", len(frames), path)
		case "frames":
			copied := 0
			for _, f := range frames {
				if f.FilePath == nil {
					continue
				}
				dest := filepath.Join(exportOutput, filepath.Base(*f.FilePath))
				if err := copyFile(*f.FilePath, dest); err != nil {
					return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "copy frame file"))
				}
				copied++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d frame file(s) to %s\n", copied, exportOutput)
		default:
			return fail(cmd, fmt.Errorf("unknown export format %q, want json or frames", exportFormat))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSession, "session", "", "session id to export (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export shape: json|frames")
	exportCmd.Flags().StringVar(&exportOutput, "output", ".", "output directory")
	exportCmd.MarkFlagRequired("session")
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
