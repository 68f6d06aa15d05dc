//go:build linux

package capture

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

type linuxBackend struct {
	tempDir string
	mu      sync.Mutex
	stealth bool
}

func (l *linuxBackend) captureRaw(ctx context.Context) ([]byte, string, int, int, error) {
	tmpFile := filepath.Join(l.tempDir, "screenshot.png")

	var cmd *exec.Cmd
	if _, err := exec.LookPath("gnome-screenshot"); err == nil {
		cmd = exec.CommandContext(ctx, "gnome-screenshot", "-f", tmpFile)
	} else if _, err := exec.LookPath("scrot"); err == nil {
		cmd = exec.CommandContext(ctx, "scrot", "-o", tmpFile)
	} else {
		slog.Error("no screenshot tool found (install gnome-screenshot or scrot)")
		return nil, "", 0, 0, os.ErrNotExist
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screenshot failed", "error", err, "stderr", stderr.String())
		return nil, "", 0, 0, err
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, "", 0, 0, err
	}
	os.Remove(tmpFile)

	width, height := 0, 0
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	return data, "main", width, height, nil
}

func (l *linuxBackend) listDisplays(ctx context.Context) ([]Display, error) {
	out, err := exec.CommandContext(ctx, "xrandr", "--listmonitors").Output()
	if err != nil {
		return []Display{{ID: "main", Name: "Main Display", Primary: true}}, nil
	}
	_ = out // parsing monitor geometry is not essential to the gated capture path
	return []Display{{ID: "main", Name: "Main Display", Primary: true}}, nil
}

func (l *linuxBackend) activeApplication(ctx context.Context) (ActiveApplication, error) {
	out, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return ActiveApplication{}, err
	}
	return ActiveApplication{WindowTitle: string(bytes.TrimSpace(out))}, nil
}

func (l *linuxBackend) setStealthMode(ctx context.Context, enabled bool) error {
	// Advisory only: X11/Wayland window exclusion from capture tools
	// varies by compositor and isn't uniformly scriptable.
	l.mu.Lock()
	l.stealth = enabled
	l.mu.Unlock()
	return nil
}

func (l *linuxBackend) cleanup() {}

// New creates a platform-specific screen capturer
func New() Capturer {
	tmpDir, err := os.MkdirTemp("", "observatory-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir}, tmpDir)
}
