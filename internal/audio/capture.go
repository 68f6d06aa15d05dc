// Package audio handles audio device capture with backpressure
package audio

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/watchloop/observatory/internal/apperrors"
)

// Chunk represents a captured audio chunk.
type Chunk struct {
	Data      []float32
	DeviceID  string
	Source    string // "user" or "system"
	Timestamp int64
}

// DeviceInfo describes an available capture device.
type DeviceInfo struct {
	ID      string
	Name    string
	Source  string // "user", "system", or "" if unclassified
	Default bool
}

// StreamConfig configures a capture stream.
type StreamConfig struct {
	SampleRate int
	BufferSize int
}

// Capturer captures audio from devices with backpressure.
type Capturer struct {
	ctx         *malgo.AllocatedContext
	devices     []*deviceCapture
	outCh       chan Chunk
	sampleRate  uint32
	mu          sync.Mutex
	running     bool
	systemAudio bool
}

type deviceCapture struct {
	device   *malgo.Device
	info     malgo.DeviceInfo
	source   string
	stopOnce sync.Once
	paused   bool
	mu       sync.Mutex
}

// NewCapturer creates a new audio capturer.
func NewCapturer(sampleRate int, bufferSize int, captureSystemAudio bool) (*Capturer, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}

	return &Capturer{
		ctx:         ctx,
		outCh:       make(chan Chunk, bufferSize),
		sampleRate:  uint32(sampleRate),
		systemAudio: captureSystemAudio,
	}, nil
}

// Output returns the channel for receiving audio chunks.
func (c *Capturer) Output() <-chan Chunk {
	return c.outCh
}

// ListDevices enumerates capture devices, classified by source.
func (c *Capturer) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	devices, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeDeviceReadFailed, "enumerate capture devices")
	}

	out := make([]DeviceInfo, 0, len(devices))
	for _, info := range devices {
		out = append(out, DeviceInfo{
			ID:     info.Name(),
			Name:   info.Name(),
			Source: c.classifyDevice(info.Name()),
		})
	}
	return out, nil
}

// DefaultInputDevice returns the first classified user-facing microphone.
func (c *Capturer) DefaultInputDevice(ctx context.Context) (DeviceInfo, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.Source == "user" {
			d.Default = true
			return d, nil
		}
	}
	return DeviceInfo{}, apperrors.New(apperrors.KindSurfaced, apperrors.CodeDeviceReadFailed, "no input device found")
}

// DefaultOutputDevice returns the first classified system-audio loopback device.
func (c *Capturer) DefaultOutputDevice(ctx context.Context) (DeviceInfo, error) {
	devices, err := c.ListDevices(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.Source == "system" {
			d.Default = true
			return d, nil
		}
	}
	return DeviceInfo{}, apperrors.New(apperrors.KindSurfaced, apperrors.CodeSystemCaptureUnavailable, "no loopback/monitor device found")
}

// Start begins capturing audio from available devices.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	devices, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return err
	}

	for _, info := range devices {
		source := c.classifyDevice(info.Name())
		if source == "" {
			continue
		}
		if source == "system" && !c.systemAudio {
			continue
		}

		if err := c.startDevice(ctx, info, source); err != nil {
			slog.Warn("failed to start device", "device", info.Name(), "error", err)
			continue
		}
		slog.Info("started audio capture", "device", info.Name(), "source", source)
	}

	return nil
}

// StartCapture starts a user-facing microphone stream and returns a control handle.
func (c *Capturer) StartCapture(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	return c.startStreamFor(ctx, "user")
}

// StartSystemCapture starts a system-audio loopback stream and returns a control handle.
// Returns CodeSystemCaptureUnavailable when no loopback/monitor device is present.
func (c *Capturer) StartSystemCapture(ctx context.Context, cfg StreamConfig) (*Stream, error) {
	return c.startStreamFor(ctx, "system")
}

func (c *Capturer) startStreamFor(ctx context.Context, wantSource string) (*Stream, error) {
	devices, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeDeviceReadFailed, "enumerate capture devices")
	}

	var matched bool
	streamCtx, cancel := context.WithCancel(ctx)
	stream := &Stream{errCh: make(chan error, 1)}

	for _, info := range devices {
		source := c.classifyDevice(info.Name())
		if source != wantSource {
			continue
		}
		matched = true
		if err := c.startDevice(streamCtx, info, source); err != nil {
			slog.Warn("failed to start device", "device", info.Name(), "error", err)
			continue
		}

		c.mu.Lock()
		if len(c.devices) > 0 {
			stream.dc = c.devices[len(c.devices)-1]
		}
		c.mu.Unlock()
		break
	}

	if !matched {
		cancel()
		if wantSource == "system" {
			return nil, apperrors.New(apperrors.KindSurfaced, apperrors.CodeSystemCaptureUnavailable, "no loopback/monitor device found")
		}
		return nil, apperrors.New(apperrors.KindSurfaced, apperrors.CodeDeviceReadFailed, "no input device found")
	}

	stream.cancel = cancel
	stream.running = true
	return stream, nil
}

// Stream is a control handle over a single device capture stream.
type Stream struct {
	dc      *deviceCapture
	cancel  context.CancelFunc
	errCh   chan error
	mu      sync.Mutex
	running bool
}

// Stop tears down the underlying device.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.dc != nil {
		s.dc.stop()
	}
	s.running = false
}

// Pause suspends delivery without tearing down the device.
func (s *Stream) Pause() {
	if s.dc != nil {
		s.dc.setPaused(true)
	}
}

// Resume re-enables delivery after a Pause.
func (s *Stream) Resume() {
	if s.dc != nil {
		s.dc.setPaused(false)
	}
}

// IsRunning reports whether the stream is active (including paused).
func (s *Stream) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Errors returns the out-of-band channel for stream errors. Nothing in
// this package sends on it, and a stream is never paused on an error.
func (s *Stream) Errors() <-chan error {
	return s.errCh
}

func (dc *deviceCapture) setPaused(paused bool) {
	dc.mu.Lock()
	dc.paused = paused
	dc.mu.Unlock()
}

func (dc *deviceCapture) isPaused() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.paused
}

func (c *Capturer) classifyDevice(name string) string {
	// Check for system audio loopback devices
	systemKeywords := []string{"blackhole", "vb-cable", "loopback", "monitor", "soundflower"}
	for _, kw := range systemKeywords {
		if containsIgnoreCase(name, kw) {
			return "system"
		}
	}

	// Check for microphone
	micKeywords := []string{"microphone", "input", "mic", "built-in"}
	for _, kw := range micKeywords {
		if containsIgnoreCase(name, kw) {
			return "user"
		}
	}

	return ""
}

func (c *Capturer) startDevice(ctx context.Context, info malgo.DeviceInfo, source string) error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = c.sampleRate
	deviceConfig.Capture.DeviceID = info.ID.Pointer()

	deviceID := info.Name()

	dc := &deviceCapture{info: info, source: source}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pSamples []byte, frameCount uint32) {
			if dc.isPaused() {
				return
			}

			samples := bytesToFloat32(pSamples)
			if len(samples) == 0 {
				return
			}

			chunk := Chunk{
				Data:     samples,
				DeviceID: deviceID,
				Source:   source,
			}

			// Non-blocking send with backpressure - drop if channel full
			select {
			case c.outCh <- chunk:
			default:
				slog.Debug("audio buffer full, dropping chunk", "device", deviceID)
			}
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return err
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return err
	}

	dc.device = device
	c.mu.Lock()
	c.devices = append(c.devices, dc)
	c.mu.Unlock()

	// Stop device when context is canceled.
	go func() {
		<-ctx.Done()
		dc.stop()
	}()

	return nil
}

func (d *deviceCapture) stop() {
	d.stopOnce.Do(func() {
		if d.device.IsStarted() {
			_ = d.device.Stop()
		}
		d.device.Uninit()
	})
}

// Stop stops all audio capture.
func (c *Capturer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.devices {
		d.stop()
	}
	c.devices = nil
	c.running = false
}

// Float32 byte size constant
const float32ByteSize = 4

func bytesToFloat32(b []byte) []float32 {
	if len(b)%float32ByteSize != 0 {
		return nil
	}
	samples := make([]float32, len(b)/float32ByteSize)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(b[i*float32ByteSize:])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}

func containsIgnoreCase(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || containsIgnoreCaseImpl(s, substr))
}

// ASCII case offset ('a' - 'A')
const asciiCaseOffset = 'a' - 'A'

func containsIgnoreCaseImpl(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			c1, c2 := s[i+j], substr[j]
			if c1 >= 'A' && c1 <= 'Z' {
				c1 += asciiCaseOffset
			}
			if c2 >= 'A' && c2 <= 'Z' {
				c2 += asciiCaseOffset
			}
			if c1 != c2 {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
