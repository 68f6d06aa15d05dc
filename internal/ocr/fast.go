package ocr

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/watchloop/observatory/internal/trace"
)

// FastConfig configures the real-time wrapper around Processor.
type FastConfig struct {
	MaxProcessingTime    time.Duration
	MaxWidth, MaxHeight  int
	ConfidenceThreshold  float32
}

// DefaultFastConfig is the "balanced" preset.
func DefaultFastConfig() FastConfig {
	return FastConfig{
		MaxProcessingTime:   2000 * time.Millisecond,
		MaxWidth:            1600,
		MaxHeight:           1200,
		ConfidenceThreshold: 0.3,
	}
}

// UltraFastConfig favors latency over completeness.
func UltraFastConfig() FastConfig {
	return FastConfig{
		MaxProcessingTime:   1000 * time.Millisecond,
		MaxWidth:            1200,
		MaxHeight:           900,
		ConfidenceThreshold: 0.2,
	}
}

// HighQualityConfig favors accuracy and tolerates more latency.
func HighQualityConfig() FastConfig {
	return FastConfig{
		MaxProcessingTime:   5000 * time.Millisecond,
		MaxWidth:            2048,
		MaxHeight:           1536,
		ConfidenceThreshold: 0.5,
	}
}

// FastProcessor enforces a hard time budget on top of Processor, skipping
// denoise and classification for speed. Per spec §4.C / Open Question 2,
// a timeout produces a typed empty Result{TimedOut: true} — never a
// synthesized sentinel text block. Concurrent calls run the engine one
// at a time, serialized by mu.
type FastProcessor struct {
	cfg   FastConfig
	inner *Processor
	mu    sync.Mutex
}

// NewFastProcessor builds a time-budgeted OCR wrapper.
func NewFastProcessor(cfg FastConfig, engine Engine) *FastProcessor {
	pre := DefaultPreprocessConfig()
	pre.Denoise = false
	pre.GaussianBlurSigma = 0
	pre.ScaleFactor = 0.8
	pre.DPITarget = 150

	inner := NewProcessor(Config{
		Preprocessing:   pre,
		MinConfidence:   cfg.ConfidenceThreshold,
		EnableClassify:  false,
		EnableAggregate: false,
	}, engine)

	return &FastProcessor{cfg: cfg, inner: inner}
}

// ProcessImageFast runs the budgeted pipeline, returning a typed empty
// result (TimedOut=false, no words) when the image is judged not worth
// processing, or TimedOut=true when the time budget is exceeded.
func (f *FastProcessor) ProcessImageFast(ctx context.Context, img image.Image) (Result, error) {
	start := time.Now()
	shrunk := shrinkToBounds(img, f.cfg.MaxWidth, f.cfg.MaxHeight)

	if !f.shouldProcess(shrunk) {
		return Result{ProcessingTime: time.Since(start), Language: "en"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.MaxProcessingTime)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		res, err := f.inner.ProcessImage(ctx, shrunk)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			trace.Logger(ctx).Warn("fast ocr processing error", "error", o.err)
			return Result{TimedOut: false, ProcessingTime: time.Since(start), Language: "en"}, nil
		}
		return f.postProcess(ctx, o.res, start), nil
	case <-ctx.Done():
		trace.Logger(ctx).Warn("fast ocr processing timed out", "budget", f.cfg.MaxProcessingTime)
		return Result{TimedOut: true, ProcessingTime: time.Since(start), Language: "en"}, nil
	}
}

func (f *FastProcessor) shouldProcess(img image.Image) bool {
	b := img.Bounds()
	const minWidth, minHeight = 100, 50
	if b.Dx() < minWidth || b.Dy() < minHeight {
		return false
	}

	gray := toGray(img)
	var sum, count int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += int64(gray.GrayAt(x, y).Y)
			count++
		}
	}
	if count == 0 {
		return false
	}
	mean := sum / count

	var variance int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := int64(gray.GrayAt(x, y).Y) - mean
			variance += d * d
		}
	}
	variance /= count

	const minVariance = 100
	return variance > minVariance
}

func (f *FastProcessor) postProcess(ctx context.Context, res Result, start time.Time) Result {
	filtered := res.Words[:0]
	for _, w := range res.Words {
		if w.Confidence >= f.cfg.ConfidenceThreshold {
			filtered = append(filtered, w)
			continue
		}
		trace.Counts().IncLowConfidenceOCR(ctx)
	}
	res.Words = filtered
	sortByConfidenceDesc(res.Words)

	res.ProcessingTime = time.Since(start)
	if len(res.Words) > 0 {
		var sum float32
		for _, w := range res.Words {
			sum += w.Confidence
		}
		res.OverallConfidence = sum / float32(len(res.Words))
	}
	return res
}

func shrinkToBounds(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	scaleW := float64(maxW) / float64(b.Dx())
	scaleH := float64(maxH) / float64(b.Dy())
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	return resizeScale(img, scale)
}
