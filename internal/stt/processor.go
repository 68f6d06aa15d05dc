package stt

import (
	"context"
	"fmt"
	"os"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

// Processor transcribes PCM audio using a loaded whisper.cpp model.
// Grounded on original_source/crates/savant-stt/src/whisper.rs's
// WhisperProcessor, adapted from the `whisper_rs` bindings it wraps to
// the `whisper.cpp/bindings/go` package already used elsewhere in the
// corpus (MrWong99-glyphoxa's native STT provider).
type Processor struct {
	model whisper.Model
	cfg   Config
}

// NewProcessor constructs an unloaded processor; call LoadModel before
// Transcribe.
func NewProcessor(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// LoadModel loads a ggml model file from disk.
func (p *Processor) LoadModel(ctx context.Context, modelPath string) error {
	trace.Logger(ctx).Info("loading whisper model", "path", modelPath)

	if _, err := os.Stat(modelPath); err != nil {
		return apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeModelMissing, "model file not found: "+modelPath)
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeModelMissing, "load whisper model")
	}

	if p.model != nil {
		p.model.Close()
	}
	p.model = model
	p.cfg.ModelPath = modelPath
	return nil
}

// IsLoaded reports whether a model has been loaded.
func (p *Processor) IsLoaded() bool { return p.model != nil }

// Close releases the underlying model.
func (p *Processor) Close() error {
	if p.model == nil {
		return nil
	}
	return p.model.Close()
}

// Transcribe runs inference over raw PCM samples at the given sample
// rate. Audio is downmixed to mono, resampled to 16kHz, and optionally
// normalized/gated before inference, per PrepareAudio.
func (p *Processor) Transcribe(ctx context.Context, samples []float32, sampleRate int, channels int) (Result, error) {
	if p.model == nil {
		return Result{}, apperrors.New(apperrors.KindFatal, apperrors.CodeModelMissing, "no model loaded")
	}

	if sampleRate != 16000 {
		trace.Logger(ctx).Warn("audio sample rate differs from whisper's expected 16kHz", "sample_rate", sampleRate)
	}

	start := time.Now()
	prepared := PrepareAudio(samples, sampleRate, channels, true, false)

	wctx, err := p.model.NewContext()
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeTranscriptionFailed, "create whisper context")
	}

	if p.cfg.Language != "" {
		if err := wctx.SetLanguage(p.cfg.Language); err != nil {
			trace.Logger(ctx).Warn("failed to set whisper language, using default", "language", p.cfg.Language, "error", err)
		}
	}

	if err := wctx.Process(prepared, nil, nil, nil); err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeTranscriptionFailed, "whisper process")
	}

	segments, fullText, err := p.collectSegments(wctx)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeTranscriptionFailed, "read whisper segments")
	}

	return Result{
		Text:           fullText,
		Language:       p.cfg.Language,
		Segments:       segments,
		ProcessingTime: time.Since(start),
		ModelUsed:      p.cfg.ModelPath,
	}, nil
}

func (p *Processor) collectSegments(wctx whisper.Context) ([]Segment, string, error) {
	var segments []Segment
	var fullText string
	for i := 0; ; i++ {
		seg, err := wctx.NextSegment()
		if err != nil {
			break
		}
		segments = append(segments, Segment{
			Text:      seg.Text,
			StartTime: seg.Start.Seconds(),
			EndTime:   seg.End.Seconds(),
		})
		if i > 0 {
			fullText += " "
		}
		fullText += seg.Text
	}
	return segments, fullText, nil
}

// TranscribeFile transcribes a WAV file's contents. Only PCM WAV is
// supported, matching the reference implementation's hound-backed
// loader.
func (p *Processor) TranscribeFile(ctx context.Context, path string) (Result, error) {
	samples, sampleRate, channels, err := readWAV(path)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeTranscriptionFailed, fmt.Sprintf("read audio file %s", path))
	}
	return p.Transcribe(ctx, samples, sampleRate, channels)
}

// SupportedLanguages lists the BCP-47-ish codes whisper.cpp models
// recognize.
func (p *Processor) SupportedLanguages() []string {
	return supportedLanguages
}
