package reactive

import (
	"context"
	"sync"
	"time"

	"github.com/watchloop/observatory/internal/trace"
)

// Detector wraps the classifier cascade and solution generator behind a
// cooldown gate, the same enabled-flag + cooldown-timer shape as the
// teacher's orchestrator/autoanswer.Detector, generalized from "is this
// text a question" to "is this screen state a coding problem."
type Detector struct {
	classifier *Classifier
	generator  *Generator
	cache      *SolutionCache

	mu       sync.Mutex
	enabled  bool
	cooldown time.Duration
	lastTime time.Time
}

// NewDetector builds a cooldown-gated detector. cooldown is the minimum
// time between two solution-generation attempts.
func NewDetector(classifier *Classifier, generator *Generator, cache *SolutionCache, cooldown time.Duration, enabled bool) *Detector {
	return &Detector{
		classifier: classifier,
		generator:  generator,
		cache:      cache,
		enabled:    enabled,
		cooldown:   cooldown,
	}
}

// Check runs the cascade over text; if it detects a coding problem and
// the cooldown has elapsed, it generates (or returns a cached) solution
// and returns both. ok is false if nothing was detected, the detector
// is disabled, or the cooldown hasn't elapsed.
func (d *Detector) Check(ctx context.Context, text string) (DetectedCodingProblem, GeneratedSolution, bool) {
	if !d.IsEnabled() {
		return DetectedCodingProblem{}, GeneratedSolution{}, false
	}

	d.mu.Lock()
	onCooldown := time.Since(d.lastTime) < d.cooldown
	d.mu.Unlock()
	if onCooldown {
		return DetectedCodingProblem{}, GeneratedSolution{}, false
	}

	problem, ok := d.classifier.Detect(text)
	if !ok {
		return DetectedCodingProblem{}, GeneratedSolution{}, false
	}

	ctx, span := trace.StartSpan(ctx, "reactive_detect")
	defer span.End()
	span.SetAttr("problem_type", string(problem.Type))
	span.SetAttr("confidence", problem.Confidence)

	if cached, found := d.cache.Get(problem.ID); found {
		return problem, cached, true
	}

	solution, err := d.generator.Generate(ctx, problem)
	if err != nil {
		trace.Logger(ctx).Warn("solution generation failed", "problem_id", problem.ID, "error", err)
		return problem, GeneratedSolution{}, false
	}
	d.cache.Put(solution)

	d.mu.Lock()
	d.lastTime = time.Now()
	d.mu.Unlock()

	return problem, solution, true
}

// SetEnabled enables or disables detection.
func (d *Detector) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()
}

// IsEnabled reports whether detection is currently enabled.
func (d *Detector) IsEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}
