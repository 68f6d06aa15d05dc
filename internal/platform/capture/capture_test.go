package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/watchloop/observatory/internal/apperrors"
)

type fakeBackend struct {
	data       []byte
	err        error
	cleanedUp  bool
	stealthSet bool
}

func (f *fakeBackend) captureRaw(ctx context.Context) ([]byte, string, int, int, error) {
	if f.err != nil {
		return nil, "", 0, 0, f.err
	}
	return f.data, "main", 100, 200, nil
}

func (f *fakeBackend) listDisplays(ctx context.Context) ([]Display, error) {
	return []Display{{ID: "main", Primary: true}}, nil
}

func (f *fakeBackend) activeApplication(ctx context.Context) (ActiveApplication, error) {
	return ActiveApplication{Name: "TestApp"}, nil
}

func (f *fakeBackend) setStealthMode(ctx context.Context, enabled bool) error {
	f.stealthSet = enabled
	return nil
}

func (f *fakeBackend) cleanup() { f.cleanedUp = true }

func TestCaptureScreenSuccess(t *testing.T) {
	fb := &fakeBackend{data: []byte("jpegbytes")}
	c := newBase(fb, "")

	img, err := c.CaptureScreen(context.Background())
	if err != nil {
		t.Fatalf("CaptureScreen: %v", err)
	}
	if img.DisplayID != "main" || img.Width != 100 || img.Height != 200 {
		t.Errorf("unexpected image metadata: %+v", img)
	}
}

func TestCaptureScreenBackendError(t *testing.T) {
	fb := &fakeBackend{err: errors.New("boom")}
	c := newBase(fb, "")

	_, err := c.CaptureScreen(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeCaptureFailed) {
		t.Errorf("expected CodeCaptureFailed, got %v", err)
	}
}

func TestCaptureScreenNilData(t *testing.T) {
	fb := &fakeBackend{data: nil}
	c := newBase(fb, "")

	_, err := c.CaptureScreen(context.Background())
	if !apperrors.IsCode(err, apperrors.CodeCaptureUnavailable) {
		t.Errorf("expected CodeCaptureUnavailable, got %v", err)
	}
}

func TestListDisplaysAndActiveApp(t *testing.T) {
	fb := &fakeBackend{}
	c := newBase(fb, "")

	displays, err := c.ListDisplays(context.Background())
	if err != nil || len(displays) != 1 {
		t.Fatalf("ListDisplays = %v, %v", displays, err)
	}

	app, err := c.GetActiveApplication(context.Background())
	if err != nil || app.Name != "TestApp" {
		t.Fatalf("GetActiveApplication = %+v, %v", app, err)
	}
}

func TestSetStealthModeAdvisory(t *testing.T) {
	fb := &fakeBackend{}
	c := newBase(fb, "")

	if err := c.SetStealthMode(context.Background(), true); err != nil {
		t.Errorf("SetStealthMode should never hard-fail, got %v", err)
	}
	if !fb.stealthSet {
		t.Error("stealth flag should be recorded on the backend")
	}
}

func TestCloseCleansUpBackend(t *testing.T) {
	fb := &fakeBackend{}
	c := newBase(fb, "")

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fb.cleanedUp {
		t.Error("Close should call backend cleanup")
	}
}
