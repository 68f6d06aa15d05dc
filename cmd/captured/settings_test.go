package main

import (
	"testing"
)

func TestDaemonSettingsBlockIsIdempotent(t *testing.T) {
	var s daemonSettings
	s.block("Slack")
	s.block("Slack")
	if len(s.BlockedApps) != 1 {
		t.Errorf("BlockedApps = %v, want exactly one entry", s.BlockedApps)
	}
}

func TestDaemonSettingsUnblockRemovesOnlyNamedApp(t *testing.T) {
	var s daemonSettings
	s.block("Slack")
	s.block("Teams")
	s.unblock("Slack")
	if len(s.BlockedApps) != 1 || s.BlockedApps[0] != "Teams" {
		t.Errorf("BlockedApps = %v, want [Teams]", s.BlockedApps)
	}
}

func TestSaveAndLoadSettingsRoundTrips(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	want := daemonSettings{Schedule: "09:00-17:00", BlockedApps: []string{"Slack"}}
	if err := saveSettings(want); err != nil {
		t.Fatalf("saveSettings: %v", err)
	}

	got, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if got.Schedule != want.Schedule || len(got.BlockedApps) != 1 || got.BlockedApps[0] != "Slack" {
		t.Errorf("loadSettings = %+v, want %+v", got, want)
	}
}

func TestLoadSettingsMissingFileReturnsZeroValue(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.Schedule != "" || len(s.BlockedApps) != 0 {
		t.Errorf("s = %+v, want zero value", s)
	}
}
