package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/eventstream"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the capture daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := readPID()
		if err != nil || !processAlive(pid) {
			return cliutil.PrintSuccess(cmd.OutOrStdout(), format(),
				map[string]any{"running": false}, "capture daemon is not running")
		}
		if !statusWatch {
			return cliutil.PrintSuccess(cmd.OutOrStdout(), format(),
				map[string]any{"running": true, "pid": pid}, "capture daemon is running (pid %d)", pid)
		}
		return watchEvents(cmd)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "stream live processing events from the running daemon until interrupted")
}

// watchEvents connects to the running daemon's event-watch endpoint and
// prints each ProcessingEvent as a line of JSON until the connection
// drops or the user interrupts.
func watchEvents(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := eventstream.Dial(ctx, config.Load().RPC.WatchAddr)
	if err != nil {
		return fail(cmd, fmt.Errorf("connect to watch endpoint: %w", err))
	}
	defer conn.CloseNow()

	for {
		ev, err := eventstream.Receive(ctx, conn)
		if err != nil {
			return nil
		}
		encoded, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	}
}
