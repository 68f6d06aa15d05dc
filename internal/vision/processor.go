package vision

import (
	"context"
	"image"
	"time"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/trace"
)

// Analyzer is the top-level Vision Analyzer, orchestrating the four
// detectors plus ContextAnalyzer into one ScreenAnalysis per frame. Its
// PatternMatcher is not run by AnalyzeScreen; MatchPatterns exposes it
// separately. Grounded on savant-vision/src/lib.rs's
// VisionAnalyzer::analyze_screen.
type Analyzer struct {
	cfg                 Config
	objectDetector      *ObjectDetector
	uiDetector          *UIDetector
	appDetector         *AppDetector
	activityClassifier  *ActivityClassifier
	contextAnalyzer     *ContextAnalyzer
	patternMatcher      *PatternMatcher
}

// NewAnalyzer builds a Vision Analyzer with its default detector set.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		cfg:                cfg,
		objectDetector:     NewObjectDetector(),
		uiDetector:         NewUIDetector(),
		appDetector:        NewAppDetector(),
		activityClassifier: NewActivityClassifier(),
		contextAnalyzer:    NewContextAnalyzer(),
		patternMatcher:     NewPatternMatcher(),
	}
}

// AnalyzeScreen runs the full detector pipeline over one frame.
// extractedText is the OCR word list for the same frame, if available.
// When it is nil, app signatures are scored on color alone, which
// cannot clear the match threshold, so no application is detected and
// IDE language detection has no text to work from.
func (a *Analyzer) AnalyzeScreen(ctx context.Context, img image.Image, extractedText []string) (ScreenAnalysis, error) {
	ctx, span := trace.StartSpan(ctx, "vision_analyze_screen")
	defer span.End()
	start := time.Now()

	var elements []VisualElement
	if a.cfg.EnableUIAnalysis {
		uiElements, err := a.uiDetector.DetectElements(ctx, img)
		if err != nil {
			return ScreenAnalysis{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "vision ui detect")
		}
		elements = append(elements, uiElements...)

		objElements, err := a.objectDetector.DetectObjects(ctx, img)
		if err != nil {
			return ScreenAnalysis{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "vision object detect")
		}
		elements = append(elements, objElements...)
	}

	var appCtx AppContext
	if a.cfg.EnableAppDetection {
		var err error
		appCtx, err = a.appDetector.DetectApplications(ctx, img, extractedText)
		if err != nil {
			return ScreenAnalysis{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "vision app detect")
		}
	}

	var activity ActivityClassification
	if a.cfg.EnableActivityClassification {
		var err error
		activity, err = a.activityClassifier.ClassifyActivity(ctx, img, appCtx, elements)
		if err != nil {
			return ScreenAnalysis{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "vision classify activity")
		}
	}

	visualCtx, err := a.contextAnalyzer.AnalyzeContext(ctx, img, appCtx, elements)
	if err != nil {
		return ScreenAnalysis{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeVisionFailed, "vision analyze context")
	}

	b := img.Bounds()
	span.SetAttr("elements", len(elements))
	span.SetAttr("apps", len(appCtx.DetectedApplications))
	span.SetAttr("activity", string(activity.Primary))

	return ScreenAnalysis{
		Timestamp:              time.Now(),
		VisualElements:         elements,
		AppContext:             appCtx,
		ActivityClassification: activity,
		VisualContext:          visualCtx,
		ProcessingTime:         time.Since(start),
		ImageMetadata:          ImageMetadata{Width: b.Dx(), Height: b.Dy(), Format: "image.Image"},
	}, nil
}

// MatchPatterns exposes the PatternMatcher directly for callers (e.g. the
// reactive detector) that want raw pattern scores alongside the full
// ScreenAnalysis.
func (a *Analyzer) MatchPatterns(img image.Image, matchCtx MatchContext) []PatternMatch {
	return a.patternMatcher.MatchPatterns(img, matchCtx)
}
