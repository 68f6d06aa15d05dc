package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var meter = otel.Meter(instrumentationName)

// InitMetrics installs a Prometheus exporter as the global meter provider
// and returns it so callers can mount its HTTP handler. Like Init, this
// is optional: without it the counters belong to the global no-op meter
// provider, so every Add call succeeds and nothing is recorded.
func InitMetrics() (*sdkmetric.MeterProvider, error) {
	exp, err := prometheus.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
	otel.SetMeterProvider(mp)
	meter = mp.Meter(instrumentationName)
	return mp, nil
}

// Counters holds the process-wide counters for conditions that are
// recoverable-and-skipped rather than surfaced as errors (dropped
// events, exhausted retries), per the skipped/retryable error taxonomy
// in internal/apperrors.
type Counters struct {
	DroppedEvents           otelmetric.Int64Counter
	RetriesExceeded         otelmetric.Int64Counter
	OCRSkipped              otelmetric.Int64Counter
	FramesDeduped           otelmetric.Int64Counter
	DuplicateTimelineEvents otelmetric.Int64Counter
	LowConfidenceOCR        otelmetric.Int64Counter
}

var counters *Counters

// NewCounters registers the standard counter set against the current
// meter. Safe to call once at process startup.
func NewCounters() *Counters {
	dropped, _ := meter.Int64Counter("observatory_events_dropped_total",
		otelmetric.WithDescription("events dropped due to channel backpressure"))
	retries, _ := meter.Int64Counter("observatory_retries_exceeded_total",
		otelmetric.WithDescription("operations that exhausted their retry budget"))
	ocrSkipped, _ := meter.Int64Counter("observatory_ocr_skipped_total",
		otelmetric.WithDescription("frames skipped by the change-detection gate before OCR"))
	deduped, _ := meter.Int64Counter("observatory_frames_deduped_total",
		otelmetric.WithDescription("frames classified as unchanged by perceptual hashing"))
	duplicateTimelineEvents, _ := meter.Int64Counter("observatory_duplicate_timeline_events_total",
		otelmetric.WithDescription("timeline events skipped because their id was already indexed"))
	lowConfidenceOCR, _ := meter.Int64Counter("observatory_low_confidence_ocr_total",
		otelmetric.WithDescription("OCR words dropped for falling below the confidence threshold"))
	counters = &Counters{
		DroppedEvents:           dropped,
		RetriesExceeded:         retries,
		OCRSkipped:              ocrSkipped,
		FramesDeduped:           deduped,
		DuplicateTimelineEvents: duplicateTimelineEvents,
		LowConfidenceOCR:        lowConfidenceOCR,
	}
	return counters
}

// Counts returns the process-wide counter set, creating it on first use.
func Counts() *Counters {
	if counters == nil {
		return NewCounters()
	}
	return counters
}

// IncDropped records a dropped event, tagged by the stage that dropped it.
func (c *Counters) IncDropped(ctx context.Context, stage string) {
	c.DroppedEvents.Add(ctx, 1, otelmetric.WithAttributes(stageAttr(stage)))
}

// IncRetriesExceeded records an operation giving up after retry exhaustion.
func (c *Counters) IncRetriesExceeded(ctx context.Context, operation string) {
	c.RetriesExceeded.Add(ctx, 1, otelmetric.WithAttributes(operationAttr(operation)))
}

// IncOCRSkipped records a frame skipped before OCR.
func (c *Counters) IncOCRSkipped(ctx context.Context) {
	c.OCRSkipped.Add(ctx, 1)
}

// IncFramesDeduped records a frame classified as unchanged.
func (c *Counters) IncFramesDeduped(ctx context.Context) {
	c.FramesDeduped.Add(ctx, 1)
}

// IncDuplicateTimelineEvents records a timeline event skipped because
// its id was already indexed.
func (c *Counters) IncDuplicateTimelineEvents(ctx context.Context) {
	c.DuplicateTimelineEvents.Add(ctx, 1)
}

// IncLowConfidenceOCR records an OCR word dropped below the confidence
// threshold.
func (c *Counters) IncLowConfidenceOCR(ctx context.Context) {
	c.LowConfidenceOCR.Add(ctx, 1)
}

func stageAttr(stage string) otelattrKV     { return otelattr.String("stage", stage) }
func operationAttr(op string) otelattrKV    { return otelattr.String("operation", op) }

type otelattrKV = otelattr.KeyValue
