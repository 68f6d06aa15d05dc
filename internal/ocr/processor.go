package ocr

import (
	"context"
	"image"
	"sort"
	"time"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

// Config configures the full (non-fast) pipeline.
type Config struct {
	Preprocessing      PreprocessConfig
	MinConfidence      float32
	EnableClassify     bool
	EnableAggregate    bool
}

// DefaultConfig mirrors the reference engine's full-quality defaults.
func DefaultConfig() Config {
	return Config{
		Preprocessing:   DefaultPreprocessConfig(),
		MinConfidence:   0.0,
		EnableClassify:  true,
		EnableAggregate: true,
	}
}

// Processor runs preprocess -> extract -> classify -> aggregate.
type Processor struct {
	cfg        Config
	pre        *Preprocessor
	engine     Engine
	classifier *Classifier
}

// NewProcessor builds a full-quality OCR processor.
func NewProcessor(cfg Config, engine Engine) *Processor {
	if engine == nil {
		engine = NewHeuristicEngine()
	}
	return &Processor{
		cfg:        cfg,
		pre:        NewPreprocessor(cfg.Preprocessing),
		engine:     engine,
		classifier: NewClassifier(),
	}
}

// ProcessImage runs the full pipeline over one frame.
func (p *Processor) ProcessImage(ctx context.Context, img image.Image) (Result, error) {
	ctx, span := trace.StartSpan(ctx, "ocr_process_image")
	defer span.End()
	start := time.Now()

	gray := p.pre.Process(img)

	words, err := p.engine.Extract(gray)
	if err != nil {
		return Result{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "ocr extract")
	}

	b := gray.Bounds()
	if p.cfg.EnableClassify {
		for i := range words {
			words[i].Type = p.classifier.Classify(words[i].Text, words[i].Box)
		}
	}

	lines := aggregateLines(words)
	paragraphs := aggregateParagraphs(words)
	regions := aggregateRegions(words, b.Dy())

	var structured Structured
	if p.cfg.EnableAggregate {
		structured = Aggregate(words, lines)
	}

	var confSum float32
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
		confSum += l.Confidence
	}
	var overall float32
	if len(lines) > 0 {
		overall = confSum / float32(len(lines))
	}

	span.SetAttr("words", len(words))
	span.SetAttr("confidence", overall)

	return Result{
		RawText:           joinLines(texts),
		Words:             words,
		Lines:             lines,
		Paragraphs:        paragraphs,
		Regions:           regions,
		Structured:        structured,
		OverallConfidence: overall,
		ProcessingTime:    time.Since(start),
		Language:          "en",
		Width:             img.Bounds().Dx(),
		Height:            img.Bounds().Dy(),
	}, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// sortByConfidenceDesc sorts words by descending confidence, used by fast
// mode's post-processing step.
func sortByConfidenceDesc(words []Word) {
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Confidence > words[j].Confidence
	})
}
