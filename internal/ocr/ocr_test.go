package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"
)

func textImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	// Draw a couple of dark horizontal bars to simulate text rows.
	for y := 10; y < 20; y++ {
		for x := 20; x < 120; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	for y := 40; y < 50; y++ {
		for x := 20; x < 80; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	return img
}

func TestClassifierCodePrecedence(t *testing.T) {
	c := NewClassifier()
	if got := c.Classify("def foo():", BoundingBox{Y: 200, Width: 100, Height: 40}); got != TextCode {
		t.Errorf("Classify(def foo()) = %v, want TextCode", got)
	}
}

func TestClassifierPositionFirst(t *testing.T) {
	c := NewClassifier()
	// A thin box always classifies as UI element regardless of text content.
	if got := c.Classify("def foo():", BoundingBox{Width: 100, Height: 10}); got != TextUIElement {
		t.Errorf("Classify thin box = %v, want TextUIElement", got)
	}
}

func TestClassifierContentFallback(t *testing.T) {
	c := NewClassifier()
	text := "This is a reasonably long sentence without any code markers at all here"
	if got := c.Classify(text, BoundingBox{Y: 200, Width: 400, Height: 40}); got != TextDocument {
		t.Errorf("Classify long prose = %v, want TextDocument", got)
	}
}

func TestHeuristicEngineExtractsRuns(t *testing.T) {
	engine := NewHeuristicEngine()
	words, err := engine.Extract(textImage(200, 100))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("expected at least one extracted word region")
	}
}

func TestAggregateLinesGroupsByLineID(t *testing.T) {
	words := []Word{
		{Text: "hello", LineID: 0, Box: BoundingBox{X: 0, Y: 0, Width: 40, Height: 20}, Confidence: 0.9},
		{Text: "world", LineID: 0, Box: BoundingBox{X: 50, Y: 0, Width: 40, Height: 20}, Confidence: 0.8},
		{Text: "next", LineID: 1, Box: BoundingBox{X: 0, Y: 30, Width: 40, Height: 20}, Confidence: 0.7},
	}
	lines := aggregateLines(words)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "hello world" {
		t.Errorf("line 0 text = %q", lines[0].Text)
	}
	if lines[0].WordCount != 2 {
		t.Errorf("line 0 word count = %d, want 2", lines[0].WordCount)
	}
}

func TestAggregateRegionsBandsByHeight(t *testing.T) {
	words := []Word{
		{Text: "header", Box: BoundingBox{Y: 5}},
		{Text: "footer", Box: BoundingBox{Y: 900}},
	}
	regions := aggregateRegions(words, 1000)
	kinds := map[string]bool{}
	for _, r := range regions {
		kinds[r.Kind] = true
	}
	if !kinds["header"] || !kinds["footer"] {
		t.Errorf("expected header+footer regions, got %+v", regions)
	}
}

func TestAggregateGroupsCodeBlocksAndChat(t *testing.T) {
	lines := []Line{{Text: "Alice: hey there"}}
	words := []Word{
		{Text: "func", Type: TextCode, Box: BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
		{Text: "main()", Type: TextCode, Box: BoundingBox{X: 15, Y: 0, Width: 20, Height: 10}},
	}
	s := Aggregate(words, lines)
	if len(s.CodeBlocks) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(s.CodeBlocks))
	}
	if s.CodeBlocks[0].Language != "go" {
		t.Errorf("expected go language fingerprint, got %q", s.CodeBlocks[0].Language)
	}
	if len(s.ChatMessages) != 1 || s.ChatMessages[0].Sender != "Alice" {
		t.Errorf("expected parsed chat sender Alice, got %+v", s.ChatMessages)
	}
}

func TestProcessorProcessImage(t *testing.T) {
	p := NewProcessor(DefaultConfig(), NewHeuristicEngine())
	res, err := p.ProcessImage(context.Background(), textImage(200, 100))
	if err != nil {
		t.Fatalf("ProcessImage: %v", err)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Errorf("unexpected dims: %dx%d", res.Width, res.Height)
	}
}

func TestFastProcessorSkipsBlankImage(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}
	f := NewFastProcessor(DefaultFastConfig(), NewHeuristicEngine())
	res, err := f.ProcessImageFast(context.Background(), blank)
	if err != nil {
		t.Fatalf("ProcessImageFast: %v", err)
	}
	if res.TimedOut {
		t.Error("blank image should not be reported as timed out")
	}
	if len(res.Words) != 0 {
		t.Errorf("expected empty result for blank image, got %d words", len(res.Words))
	}
}

func TestFastProcessorTimesOutTyped(t *testing.T) {
	cfg := DefaultFastConfig()
	cfg.MaxProcessingTime = time.Nanosecond
	f := NewFastProcessor(cfg, slowEngine{})
	res, err := f.ProcessImageFast(context.Background(), textImage(300, 300))
	if err != nil {
		t.Fatalf("ProcessImageFast: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut=true, not a sentinel text block")
	}
	if len(res.Words) != 0 {
		t.Errorf("timed-out result should carry no synthesized words, got %d", len(res.Words))
	}
}

type slowEngine struct{}

func (slowEngine) Extract(img *image.Gray) ([]Word, error) {
	time.Sleep(50 * time.Millisecond)
	return []Word{{Text: "late"}}, nil
}
