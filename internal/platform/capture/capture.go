// Package capture provides platform-agnostic screen capture, display
// enumeration, active-application lookup, and stealth-mode exclusion.
// One backend implementation exists per operating system, selected at
// build time by Go build tags, exactly the way the teacher split
// darwinBackend/linuxBackend/windowsBackend for its own single-purpose
// screenshot capturer.
package capture

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/watchloop/observatory/internal/apperrors"
)

// Display describes one enumerable screen.
type Display struct {
	ID      string
	Name    string
	Width   int
	Height  int
	Primary bool
}

// ActiveApplication describes the frontmost application at capture time.
type ActiveApplication struct {
	Name        string
	WindowTitle string
	BundleID    string
}

// Image is an immutable captured pixel buffer plus metadata.
type Image struct {
	Data       []byte
	Format     string // "jpeg" or "png"
	DisplayID  string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Capturer is the capability set every platform backend exposes.
type Capturer interface {
	CaptureScreen(ctx context.Context) (*Image, error)
	ListDisplays(ctx context.Context) ([]Display, error)
	GetActiveApplication(ctx context.Context) (ActiveApplication, error)
	SetStealthMode(ctx context.Context, enabled bool) error
	Close() error
}

// backend is the platform-specific raw implementation a baseCapturer
// wraps. Each build-tagged file in this package provides exactly one.
type backend interface {
	captureRaw(ctx context.Context) ([]byte, string, int, int, error)
	listDisplays(ctx context.Context) ([]Display, error)
	activeApplication(ctx context.Context) (ActiveApplication, error)
	setStealthMode(ctx context.Context, enabled bool) error
	cleanup()
}

// baseCapturer adapts a backend to the public Capturer interface.
type baseCapturer struct {
	backend
	tempDir string
}

func newBase(b backend, tempDir string) *baseCapturer {
	return &baseCapturer{backend: b, tempDir: tempDir}
}

// CaptureScreen takes one screenshot and returns it with metadata.
func (c *baseCapturer) CaptureScreen(ctx context.Context) (*Image, error) {
	data, displayID, w, h, err := c.captureRaw(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeCaptureFailed, "screen capture failed")
	}
	if data == nil {
		return nil, apperrors.New(apperrors.KindFatal, apperrors.CodeCaptureUnavailable, "no default display or permission denied")
	}
	format := "jpeg"
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		format = "png"
	}
	return &Image{
		Data:       data,
		Format:     format,
		DisplayID:  displayID,
		Width:      w,
		Height:     h,
		CapturedAt: time.Now(),
	}, nil
}

// ListDisplays enumerates attached displays.
func (c *baseCapturer) ListDisplays(ctx context.Context) ([]Display, error) {
	return c.backend.listDisplays(ctx)
}

// GetActiveApplication reports the frontmost application.
func (c *baseCapturer) GetActiveApplication(ctx context.Context) (ActiveApplication, error) {
	return c.backend.activeApplication(ctx)
}

// SetStealthMode requests exclusion of the host application's own
// windows from capture. Where the window server doesn't support hard
// exclusion, this is advisory: it never returns a hard failure, per the
// spec's "stealth is advisory" clause for those platforms.
func (c *baseCapturer) SetStealthMode(ctx context.Context, enabled bool) error {
	return c.backend.setStealthMode(ctx, enabled)
}

// Close releases backend resources and removes the temp directory.
func (c *baseCapturer) Close() error {
	c.cleanup()
	if c.tempDir != "" {
		return os.RemoveAll(c.tempDir)
	}
	return nil
}
