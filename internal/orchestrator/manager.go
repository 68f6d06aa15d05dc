package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/watchloop/observatory/internal/apperrors"
	audiocap "github.com/watchloop/observatory/internal/audio"
	"github.com/watchloop/observatory/internal/changedetect"
	"github.com/watchloop/observatory/internal/config"
	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/ocr"
	vadproc "github.com/watchloop/observatory/internal/orchestrator/audio"
	"github.com/watchloop/observatory/internal/orchestrator/memory"
	"github.com/watchloop/observatory/internal/orchestrator/transcript"
	"github.com/watchloop/observatory/internal/platform/capture"
	"github.com/watchloop/observatory/internal/reactive"
	"github.com/watchloop/observatory/internal/speaker"
	"github.com/watchloop/observatory/internal/storage"
	"github.com/watchloop/observatory/internal/stt"
	"github.com/watchloop/observatory/internal/timeline"
	"github.com/watchloop/observatory/internal/trace"
	"github.com/watchloop/observatory/internal/vision"
)

// Manager is the ingest loop: it is directly descended from the
// teacher's orchestrator.Manager — the same fan-out shape of a screen
// loop and an audio loop running as goroutines off a stopCh, with
// per-device VAD state and a periodic stale-state sweep — generalized
// from speech transcription + auto-answer to the full capture ->
// change-detect -> OCR/vision -> reactive-detect -> store pipeline, and
// from the teacher's narrow TranscriptEvent/AutoAnswerEvent channels to
// one ProcessingEvent channel carrying all seven event kinds.
type Manager struct {
	cfg *config.Config

	capturer       capture.Capturer
	changeDetector *changedetect.Detector
	ocrProc        *ocr.FastProcessor
	visionAnalyzer *vision.Analyzer

	audioCapturer *audiocap.Capturer
	vadProc       *vadproc.Processor
	sttProc       *stt.Processor

	store       *storage.Store
	timelineMgr *timeline.Manager
	syncMgr     *timeline.SyncManager
	reactiveDet *reactive.Detector
	batcher     *memory.Batcher
	activity    *transcript.MemoryStore

	frameWork *workPool
	counters  *trace.Counters

	events chan ProcessingEvent

	mu             sync.RWMutex
	recording      bool
	sessionID      string
	conversationID string
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// New wires every ingest-pipeline component from cfg. dispatcher may be
// nil, in which case the reactive detector's solution generator is
// disabled regardless of cfg.Reactive.Enabled (there is nothing to
// generate a solution with).
func New(cfg *config.Config, store *storage.Store, dispatcher *llmx.Dispatcher) (*Manager, error) {
	audioCapturer, err := audiocap.NewCapturer(cfg.Audio.SampleRate, AudioBufferSize, cfg.Audio.CaptureSystemAudio)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeIOFailure, "initialize audio capturer")
	}

	vad := newEnergyVAD(float32(cfg.Audio.VADThreshold) / 10)
	vadCfg := vadproc.Config{
		SampleRate:       cfg.Audio.SampleRate,
		VADThreshold:     cfg.Audio.VADThreshold,
		MaxSilenceChunks: cfg.Audio.MaxSilenceChunks,
	}

	m := &Manager{
		cfg:            cfg,
		capturer:       capture.New(),
		changeDetector: changedetect.New(cfg.Screen.ChangeThreshold),
		ocrProc:        ocr.NewFastProcessor(ocr.DefaultFastConfig(), ocr.NewHeuristicEngine()),
		visionAnalyzer: vision.NewAnalyzer(vision.DefaultConfig()),
		audioCapturer:  audioCapturer,
		sttProc:        stt.NewProcessor(stt.Config{ModelPath: sttModelPath(cfg), EnableTimestamps: true}),
		store:          store,
		timelineMgr:    timeline.NewManager(),
		batcher:        memory.NewBatcher(store, MemoryBatcherMaxSize, MemoryBatcherFlushDelay),
		activity:       transcript.NewStore(ActivityWindowEntries, ActivityWindowBuffer),
		frameWork:      newWorkPool(),
		counters:       trace.Counts(),
		events:         make(chan ProcessingEvent, EventChannelBuffer),
		sessionID:      uuid.New().String(),
		stopCh:         make(chan struct{}),
	}
	m.syncMgr = timeline.NewSyncManagerOver(m.timelineMgr, timeline.DefaultSyncManagerConfig())
	m.vadProc = vadproc.NewProcessor(vad, vadCfg, m.handleSpeech)

	classifier := reactive.NewClassifier()
	var generator *reactive.Generator
	if dispatcher != nil {
		generator = reactive.NewGenerator(dispatcher, "dispatcher")
	}
	m.reactiveDet = reactive.NewDetector(classifier, generator, reactive.NewSolutionCache(),
		time.Duration(cfg.Reactive.Cooldown*float64(time.Second)), cfg.Reactive.Enabled && generator != nil)

	return m, nil
}

func sttModelPath(cfg *config.Config) string {
	if cfg.STT.PreferredModel != "" {
		return cfg.STT.ModelDir + "/" + cfg.STT.PreferredModel
	}
	return cfg.STT.ModelDir + "/ggml-base.en.bin"
}

const (
	// AudioBufferSize is the audio capturer's output channel buffer.
	AudioBufferSize = 100
	// MemoryBatcherMaxSize/MemoryBatcherFlushDelay tune the batched
	// activity-text write path.
	MemoryBatcherMaxSize    = 50
	MemoryBatcherFlushDelay = 2 * time.Second
)

// Events returns the channel ProcessingEvents are published on. Sends
// never block: if the channel is full, the event is dropped and a
// trace counter is incremented instead.
func (m *Manager) Events() <-chan ProcessingEvent { return m.events }

func (m *Manager) emit(ctx context.Context, event ProcessingEvent) {
	select {
	case m.events <- event:
	default:
		m.counters.IncDropped(ctx, event.Kind().String())
	}
}

func (m *Manager) emitError(ctx context.Context, stage string, err error) {
	trace.Logger(ctx).Warn("ingest stage failed", "stage", stage, "error", err)
	m.emit(ctx, ProcessingError{Time: time.Now(), Stage: stage, Err: err})
}

// SetRecording toggles whether ingested activity is written to storage.
// The ingest loops keep running regardless (change detection, OCR, and
// the reactive detector all still execute) — only the storage/timeline
// writes are gated, mirroring the teacher's StoreMemory gate on
// m.recording.
func (m *Manager) SetRecording(on bool) {
	m.mu.Lock()
	m.recording = on
	m.mu.Unlock()
}

func (m *Manager) isRecording() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recording
}

// Start begins the screen and audio ingest loops. It returns once both
// are scheduled; call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.audioCapturer.Start(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.KindFatal, apperrors.CodeIOFailure, "start audio capture")
	}

	m.wg.Add(3)
	go m.screenLoop(ctx)
	go m.audioLoop(ctx)
	go m.vadCleanupLoop(ctx)

	return nil
}

// Stop signals every ingest loop to exit. In-flight LLM requests are
// not force-cancelled, and no per-call timeout bounds them; no new ones
// are started once stopCh is closed,
// since ingestFrame/handleSpeech are never invoked again after their
// owning loop observes the close. In-flight storage writes (including
// the batcher's own flush) are allowed to complete.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	m.batcher.Stop()
	m.audioCapturer.Stop()
}

func (m *Manager) screenLoop(ctx context.Context) {
	defer m.wg.Done()
	rate := m.cfg.Screen.CaptureRate
	if rate <= 0 {
		rate = 1.0
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.ingestFrame(ctx)
		}
	}
}

// ingestFrame runs one capture -> change-detect -> OCR/vision -> react
// -> store pass. Ordering within a frame is guaranteed: FrameProcessed
// publishes first once both stages have finished, followed by
// TextExtracted and then TaskDetected, followed last by CodingProblemDetected
// and SolutionGenerated, since the reactive check only runs once OCR
// has produced text. Cross-frame ordering is by timestamp only; the
// timeline's single-writer RWGuard linearizes every insertion.
func (m *Manager) ingestFrame(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "ingest_frame")
	defer span.End()

	img, err := m.capturer.CaptureScreen(ctx)
	if err != nil {
		m.emitError(ctx, "capture", err)
		return
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		m.emitError(ctx, "decode", err)
		return
	}

	result, err := m.changeDetector.ScoreImage(decoded)
	if err != nil {
		m.emitError(ctx, "change_detect", err)
		return
	}
	if !result.Significant {
		m.counters.IncFramesDeduped(ctx)
		m.counters.IncOCRSkipped(ctx)
		return
	}

	frameID := uuid.New().String()
	now := time.Now()
	appCtx, _ := m.capturer.GetActiveApplication(ctx)

	var ocrRes ocr.Result
	var visionRes vision.ScreenAnalysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.frameWork.acquire()
		defer m.frameWork.release()
		stageCtx, cancel := context.WithTimeout(gctx, StageTimeout)
		defer cancel()
		res, err := m.ocrProc.ProcessImageFast(stageCtx, decoded)
		if err != nil {
			return err
		}
		ocrRes = res
		return nil
	})
	g.Go(func() error {
		m.frameWork.acquire()
		defer m.frameWork.release()
		stageCtx, cancel := context.WithTimeout(gctx, StageTimeout)
		defer cancel()
		res, err := m.visionAnalyzer.AnalyzeScreen(stageCtx, decoded, nil)
		if err != nil {
			return err
		}
		visionRes = res
		return nil
	})
	if err := g.Wait(); err != nil {
		m.emitError(ctx, "frame_analysis", err)
		return
	}

	m.emit(ctx, FrameProcessed{FrameID: frameID, Time: now, ChangeScore: result.Score, AppName: appCtx.Name})
	appName := appCtx.Name
	m.timelineMgr.AddVideoEvent(ctx, timeline.VideoEvent{
		EventID: frameID, Time: now, Type: timeline.VideoFrameCaptured,
		FrameID: &frameID, Confidence: 1,
		Metadata: timeline.VideoEventMetadata{ApplicationName: &appName},
	})

	var dbFrameID int64
	if m.isRecording() {
		frameHash := fmt.Sprintf("%016x", result.Hash)
		dbFrameID, err = m.store.StoreVideoFrame(ctx, storage.VideoFrame{
			TimestampMs: now.UnixMilli(),
			SessionID:   m.sessionID,
			FrameHash:   frameHash,
			ChangeScore: result.Score,
			ActiveApp:   &appName,
		})
		if err != nil {
			m.emitError(ctx, "store_frame", err)
		}
		if err := m.store.RecordAppUsage(ctx, appName, m.sessionID, now.Format("2006-01-02"), 1.0/rateHz(m.cfg)); err != nil {
			m.emitError(ctx, "record_app_usage", err)
		}
	}

	if strings.TrimSpace(ocrRes.RawText) != "" {
		rawText := ocrRes.RawText
		m.emit(ctx, TextExtracted{FrameID: frameID, Time: now, Text: rawText,
			WordCount: len(ocrRes.Words), Confidence: ocrRes.OverallConfidence})
		m.timelineMgr.AddVideoEvent(ctx, timeline.VideoEvent{
			EventID: uuid.New().String(), Time: now, Type: timeline.VideoTextExtracted,
			FrameID: &frameID, Confidence: ocrRes.OverallConfidence,
			Metadata: timeline.VideoEventMetadata{TextContent: &rawText},
		})
		m.activity.Add(rawText, "screen")
		if len(ocrRes.Words) >= MinWordsForActivityRecord {
			m.batcher.Add(rawText, "screen")
		}
		if m.isRecording() && dbFrameID != 0 {
			if err := m.store.StoreTextExtractions(ctx, dbFrameID, toTextExtractions(ocrRes)); err != nil {
				m.emitError(ctx, "store_text_extractions", err)
			}
		}
	}

	activity := visionRes.ActivityClassification
	if activity.Primary != "" && activity.Primary != vision.ActivityUnknown {
		m.emit(ctx, TaskDetected{FrameID: frameID, Time: now, Activity: string(activity.Primary), Confidence: activity.PrimaryConfidence})
		activityType := string(activity.Primary)
		m.timelineMgr.AddVideoEvent(ctx, timeline.VideoEvent{
			EventID: uuid.New().String(), Time: now, Type: timeline.VideoActivityClassified,
			FrameID: &frameID, Confidence: activity.PrimaryConfidence,
			Metadata: timeline.VideoEventMetadata{ActivityType: &activityType},
		})
	}

	m.checkReactive(ctx, m.activity.GetRecent(m.cfg.Reactive.ContextWindow*60))
}

func rateHz(cfg *config.Config) float64 {
	if cfg.Screen.CaptureRate <= 0 {
		return 1.0
	}
	return cfg.Screen.CaptureRate
}

func toTextExtractions(res ocr.Result) []storage.TextExtraction {
	out := make([]storage.TextExtraction, 0, len(res.Words))
	for _, w := range res.Words {
		typ := w.Type.String()
		out = append(out, storage.TextExtraction{
			WordText: w.Text, Confidence: float64(w.Confidence),
			BBoxX: w.Box.X, BBoxY: w.Box.Y, BBoxWidth: w.Box.Width, BBoxHeight: w.Box.Height,
			TextType: &typ, LineID: w.LineID, ParagraphID: w.ParagraphID,
		})
	}
	return out
}

// checkReactive runs the coding-problem cascade over the rolling
// activity window text and, on a hit, persists the finding (and any
// generated solution) and publishes the corresponding events.
func (m *Manager) checkReactive(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	problem, solution, ok := m.reactiveDet.Check(ctx, text)
	if !ok {
		return
	}
	now := time.Now()
	m.emit(ctx, CodingProblemDetected{Time: now, Problem: problem})

	if m.isRecording() {
		task := storage.DetectedTask{
			ID: problem.ID, DetectedAt: now, ProblemType: string(problem.Type),
			Confidence: float64(problem.Confidence),
		}
		if problem.Language != reactive.LanguageUnknown {
			lang := string(problem.Language)
			task.Language = &lang
		}
		if problem.Platform != reactive.PlatformUnknown {
			platform := string(problem.Platform)
			task.Platform = &platform
		}
		if problem.Description != "" {
			desc := problem.Description
			task.ProblemText = &desc
		}
		if solution.Code != "" {
			code := solution.Code
			task.SolutionCode = &code
		}
		if err := m.store.StoreDetectedTask(ctx, task); err != nil {
			m.emitError(ctx, "store_detected_task", err)
		}
	}

	if solution.Code != "" {
		m.emit(ctx, SolutionGenerated{Time: now, Solution: solution})
	}
}

func (m *Manager) vadCleanupLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(VADCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.vadProc.CleanupStale()
		}
	}
}

func (m *Manager) audioLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case chunk, ok := <-m.audioCapturer.Output():
			if !ok {
				return
			}
			m.vadProc.ProcessChunk(ctx, chunk)
		}
	}
}

// handleSpeech transcribes a completed speech segment, attributes it to
// a speaker, and stores/publishes the result. Invoked as a goroutine by
// vadProc, the same shape as the teacher's Manager.handleSpeech.
func (m *Manager) handleSpeech(ctx context.Context, samples []float32, source string) {
	ctx, span := trace.StartSpan(ctx, "ingest_speech")
	defer span.End()

	result, err := m.sttProc.Transcribe(ctx, samples, m.cfg.Audio.SampleRate, 1)
	if err != nil {
		m.emitError(ctx, "transcribe", err)
		return
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return
	}

	speakerLabel := "user"
	if source == "system" {
		speakerLabel = "system"
	}
	if match, ok := speaker.IdentifyByText(text); ok {
		speakerLabel = match.SpeakerID
	}

	now := time.Now()
	segmentID := uuid.New().String()
	m.timelineMgr.AddAudioEvent(ctx, timeline.AudioEvent{
		EventID: uuid.New().String(), Time: now, Type: timeline.AudioTranscriptionAvailable,
		SegmentID: &segmentID, Confidence: 1,
		Metadata: timeline.AudioEventMetadata{SpeakerID: &speakerLabel, Transcription: &text, AudioSource: &source},
	})

	m.activity.Add(text, source)
	if len(strings.Fields(text)) >= MinWordsForActivityRecord {
		m.batcher.Add(text, source)
	}

	if isQuestion(text) {
		m.emit(ctx, QuestionDetected{Time: now, Question: text, Source: source})
	}

	if m.isRecording() {
		convID, err := m.activeConversationID(ctx)
		if err != nil {
			m.emitError(ctx, "conversation_lookup", err)
		} else if _, err := m.store.StoreSegment(ctx, convID, storage.Segment{
			ID: segmentID, ConversationID: convID, Timestamp: now,
			Speaker: speakerLabel, AudioSource: source, Text: text,
		}); err != nil {
			m.emitError(ctx, "store_segment", err)
		}
	}

	m.checkReactive(ctx, text)
}

// activeConversationID returns the session's single conversation,
// creating it on first use. The ingest loop deliberately keeps one
// conversation per session rather than segmenting by silence gaps;
// segmentation is left to downstream query-time grouping.
func (m *Manager) activeConversationID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conversationID != "" {
		return m.conversationID, nil
	}
	id, err := m.store.CreateConversation(ctx, nil, nil)
	if err != nil {
		return "", err
	}
	m.conversationID = id
	return id, nil
}

// isQuestion is a lightweight heuristic question detector for spoken
// transcripts — the same shape as the teacher's autoanswer.QuestionDetector
// but pattern-based rather than inference-backed, since here it only
// gates a UI event rather than an LLM call.
func isQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, lead := range []string{"what ", "why ", "how ", "when ", "where ", "who ", "can you ", "could you ", "is it ", "are there "} {
		if strings.HasPrefix(lower, lead) {
			return true
		}
	}
	return false
}
