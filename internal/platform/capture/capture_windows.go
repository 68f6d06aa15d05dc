//go:build windows

package capture

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

type windowsBackend struct {
	tempDir string
	mu      sync.Mutex
	stealth bool
}

func (w *windowsBackend) captureRaw(ctx context.Context) ([]byte, string, int, int, error) {
	// TODO: implement via Windows GDI (BitBlt) or DXGI desktop duplication.
	slog.Warn("Windows screen capture not yet implemented")
	return nil, "", 0, 0, os.ErrNotExist
}

func (w *windowsBackend) listDisplays(ctx context.Context) ([]Display, error) {
	return []Display{{ID: "main", Name: "Main Display", Primary: true}}, nil
}

func (w *windowsBackend) activeApplication(ctx context.Context) (ActiveApplication, error) {
	return ActiveApplication{}, os.ErrNotExist
}

func (w *windowsBackend) setStealthMode(ctx context.Context, enabled bool) error {
	// Advisory only: no DXGI exclusion binding is wired up yet.
	w.mu.Lock()
	w.stealth = enabled
	w.mu.Unlock()
	return nil
}

func (w *windowsBackend) cleanup() {}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "observatory-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&windowsBackend{tempDir: tmpDir}, tmpDir)
}
