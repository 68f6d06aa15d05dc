package main

import (
	"github.com/spf13/cobra"

	"github.com/watchloop/observatory/internal/cliutil"
)

var (
	configSchedule   string
	configBlockApp   string
	configUnblockApp string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit the capture schedule and app blocklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return fail(cmd, err)
		}

		changed := false
		if configSchedule != "" {
			settings.Schedule = configSchedule
			changed = true
		}
		if configBlockApp != "" {
			settings.block(configBlockApp)
			changed = true
		}
		if configUnblockApp != "" {
			settings.unblock(configUnblockApp)
			changed = true
		}
		if changed {
			if err := saveSettings(settings); err != nil {
				return fail(cmd, err)
			}
		}
		return cliutil.PrintSuccess(cmd.OutOrStdout(), format(), settings, "schedule=%q blocked_apps=%v", settings.Schedule, settings.BlockedApps)
	},
}

func init() {
	configCmd.Flags().StringVar(&configSchedule, "schedule", "", "capture window, e.g. 09:00-17:00")
	configCmd.Flags().StringVar(&configBlockApp, "block-app", "", "add an application to the capture blocklist")
	configCmd.Flags().StringVar(&configUnblockApp, "unblock-app", "", "remove an application from the capture blocklist")
}
