package orchestrator

import (
	"github.com/watchloop/observatory/internal/storage"
	"github.com/watchloop/observatory/internal/timeline"
)

// Store exposes the relational store backing this Manager, for CLI and
// RPC surfaces that need direct read access alongside the live event
// stream.
func (m *Manager) Store() *storage.Store { return m.store }

// Timeline exposes the fused event timeline.
func (m *Manager) Timeline() *timeline.Manager { return m.timelineMgr }

// SyncManager exposes the video/audio correlation engine.
func (m *Manager) SyncManager() *timeline.SyncManager { return m.syncMgr }

// SessionID returns this Manager's capture session id, used to scope
// stored frames and app-usage rows.
func (m *Manager) SessionID() string { return m.sessionID }

// IsRecording reports whether ingested activity is currently being
// persisted.
func (m *Manager) IsRecording() bool { return m.isRecording() }
