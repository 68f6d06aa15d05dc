//go:build darwin

package capture

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

type darwinBackend struct {
	tempDir string
	mu      sync.Mutex
	stealth bool
}

func (d *darwinBackend) captureRaw(ctx context.Context) ([]byte, string, int, int, error) {
	tmpFile := filepath.Join(d.tempDir, "screenshot.jpg")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-t", "jpg", "-m", tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screencapture failed", "error", err, "stderr", stderr.String())
		return nil, "", 0, 0, err
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, "", 0, 0, err
	}
	_ = os.Remove(tmpFile)

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	return data, "main", width, height, nil
}

func (d *darwinBackend) listDisplays(ctx context.Context) ([]Display, error) {
	// system_profiler parsing is out of scope for a headless backend;
	// a single primary display is reported, which is sufficient for the
	// -m (main display) capture path above.
	return []Display{{ID: "main", Name: "Main Display", Primary: true}}, nil
}

func (d *darwinBackend) activeApplication(ctx context.Context) (ActiveApplication, error) {
	script := `tell application "System Events" to get name of first application process whose frontmost is true`
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return ActiveApplication{}, err
	}
	name := string(bytes.TrimSpace(out))
	return ActiveApplication{Name: name}, nil
}

func (d *darwinBackend) setStealthMode(ctx context.Context, enabled bool) error {
	// A real exclusion overlay requires an NSWindow with sharingType
	// .none, which needs a Cocoa binding this backend doesn't have.
	// Advisory-only here: the flag is recorded but not enforced.
	d.mu.Lock()
	d.stealth = enabled
	d.mu.Unlock()
	return nil
}

func (d *darwinBackend) cleanup() {}

// New creates a platform-specific screen capturer.
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "observatory-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&darwinBackend{tempDir: tmpDir}, tmpDir)
}
