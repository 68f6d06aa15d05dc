package main

import (
	"os"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/cliutil"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running capture daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := readPID()
		if err != nil {
			return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "no capture daemon is running"))
		}
		if !processAlive(pid) {
			removePIDFile()
			return fail(cmd, apperrors.Newf(apperrors.KindSurfaced, apperrors.CodeIOFailure,
				"pid file referenced a dead process (pid %d); removed stale pid file", pid))
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "find capture daemon process"))
		}
		if err := proc.Signal(syscall.SIGTERM); err != nil {
			return fail(cmd, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "signal capture daemon"))
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), map[string]int{"pid": pid}, "stopped capture daemon (pid %d)", pid)
	},
}
