package main

import (
	"encoding/json"
	"os"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/config"
)

// daemonSettings is the small piece of mutable runtime state `config`
// edits: a capture schedule window and an app blocklist/allowlist. This
// is distinct from internal/config.Config (env-var bootstrap settings,
// loaded once at process start) — schedule and blocked-app lists are
// toggled interactively while the daemon is running, so they live in
// their own small JSON file rather than forcing a config-file format
// onto the bootstrap loader.
type daemonSettings struct {
	Schedule    string   `json:"schedule,omitempty"`
	BlockedApps []string `json:"blocked_apps,omitempty"`
}

func settingsPath() string {
	return config.DefaultDataDir() + "/daemon_settings.json"
}

func loadSettings() (daemonSettings, error) {
	var s daemonSettings
	data, err := os.ReadFile(settingsPath())
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "read daemon settings")
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "parse daemon settings")
	}
	return s, nil
}

func saveSettings(s daemonSettings) error {
	path := settingsPath()
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "create data dir")
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeIOFailure, "encode daemon settings")
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *daemonSettings) block(app string) {
	for _, existing := range s.BlockedApps {
		if existing == app {
			return
		}
	}
	s.BlockedApps = append(s.BlockedApps, app)
}

func (s *daemonSettings) unblock(app string) {
	filtered := s.BlockedApps[:0]
	for _, existing := range s.BlockedApps {
		if existing != app {
			filtered = append(filtered, existing)
		}
	}
	s.BlockedApps = filtered
}
