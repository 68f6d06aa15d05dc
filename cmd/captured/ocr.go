package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var (
	ocrSince string
	ocrLimit int
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Show recently extracted on-screen text",
	RunE: func(cmd *cobra.Command, args []string) error {
		sinceMs, err := sinceMillis(ocrSince)
		if err != nil {
			return fail(cmd, err)
		}

		store, err := openStore(cmd.Context())
		if err != nil {
			return fail(cmd, err)
		}
		defer store.Close()

		lines, err := store.TextSince(cmd.Context(), sinceMs, ocrLimit)
		if err != nil {
			return fail(cmd, err)
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), lines, "%d text extraction(s) since %s", len(lines), ocrSince)
	},
}

func init() {
	ocrCmd.Flags().StringVar(&ocrSince, "since", "1h", "how far back to look, e.g. 10m, 1h, 24h")
	ocrCmd.Flags().IntVar(&ocrLimit, "limit", 50, "maximum rows to return")
}

// sinceMillis resolves a relative duration expression ("10m", "1h") into
// the epoch-millisecond floor for a TextSince query.
func sinceMillis(expr string) (int64, error) {
	d, err := time.ParseDuration(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid --since expression %q: %w", expr, err)
	}
	return time.Now().Add(-d).UnixMilli(), nil
}
