package vision

import (
	"image"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// IndicatorType is the kind of evidence a PatternIndicator contributes.
type IndicatorType string

const (
	IndicatorColor    IndicatorType = "color"
	IndicatorShape    IndicatorType = "shape"
	IndicatorText     IndicatorType = "text"
	IndicatorPosition IndicatorType = "position"
	IndicatorSize     IndicatorType = "size"
	IndicatorTexture  IndicatorType = "texture"
	IndicatorLayout   IndicatorType = "layout"
)

// PatternIndicator is one weighted, optionally-required piece of
// evidence a VisualPattern checks for.
type PatternIndicator struct {
	Type     IndicatorType
	Value    string
	Weight   float32
	Required bool
}

// PatternType categorizes what a VisualPattern recognizes.
type PatternType string

const (
	PatternApplicationSignature PatternType = "application_signature"
	PatternUIElement            PatternType = "ui_element"
	PatternLayout               PatternType = "layout"
	PatternInteraction          PatternType = "interaction"
	PatternContent              PatternType = "content"
	PatternNavigation           PatternType = "navigation"
)

// VisualPattern is a named, weighted bundle of indicators with a
// pass/fail confidence threshold.
type VisualPattern struct {
	ID                  string
	Type                PatternType
	ConfidenceThreshold float32
	Description         string
	Indicators          []PatternIndicator
}

// PatternMatch is one VisualPattern that scored above its threshold.
type PatternMatch struct {
	PatternID          string
	Confidence         float32
	MatchedIndicators  []string
}

// MatchContext carries the inputs an indicator evaluator needs beyond the
// raw pixels: OCR text, element bounds, and screen dimensions.
type MatchContext struct {
	ExtractedText  []string
	VisualElements []VisualElement
	ScreenWidth    int
	ScreenHeight   int
}

// PatternMatcher generalizes app-signature matching to an arbitrary set
// of named, weighted, multi-indicator patterns. Grounded directly on
// savant-vision/src/patterns.rs's PatternMatcher/VisualPattern/
// PatternIndicator trio.
type PatternMatcher struct {
	patterns map[string]VisualPattern
}

// NewPatternMatcher builds the matcher with the built-in pattern table.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{patterns: builtinPatterns()}
}

func builtinPatterns() map[string]VisualPattern {
	patterns := make(map[string]VisualPattern)

	patterns["zoom_meeting"] = VisualPattern{
		ID: "zoom_meeting", Type: PatternApplicationSignature, ConfidenceThreshold: 0.7,
		Description: "Zoom video conferencing interface",
		Indicators: []PatternIndicator{
			{Type: IndicatorColor, Value: "#2D8CFF", Weight: 0.3},
			{Type: IndicatorText, Value: "Zoom", Weight: 0.4},
			{Type: IndicatorText, Value: "Participants", Weight: 0.2},
			{Type: IndicatorLayout, Value: "video_grid", Weight: 0.3},
		},
	}

	patterns["vscode_ide"] = VisualPattern{
		ID: "vscode_ide", Type: PatternApplicationSignature, ConfidenceThreshold: 0.6,
		Description: "Visual Studio Code IDE interface",
		Indicators: []PatternIndicator{
			{Type: IndicatorColor, Value: "#1E1E1E", Weight: 0.2},
			{Type: IndicatorText, Value: "Explorer", Weight: 0.3},
			{Type: IndicatorLayout, Value: "sidebar_editor_panel", Weight: 0.4},
			{Type: IndicatorText, Value: "Visual Studio Code", Weight: 0.5},
		},
	}

	patterns["chrome_browser"] = VisualPattern{
		ID: "chrome_browser", Type: PatternApplicationSignature, ConfidenceThreshold: 0.5,
		Description: "Google Chrome browser interface",
		Indicators: []PatternIndicator{
			{Type: IndicatorShape, Value: "rounded_tabs", Weight: 0.3},
			{Type: IndicatorText, Value: "Chrome", Weight: 0.2},
			{Type: IndicatorLayout, Value: "address_bar_tabs", Weight: 0.4},
		},
	}

	patterns["terminal_app"] = VisualPattern{
		ID: "terminal_app", Type: PatternApplicationSignature, ConfidenceThreshold: 0.6,
		Description: "Terminal/command line interface",
		Indicators: []PatternIndicator{
			{Type: IndicatorColor, Value: "#000000", Weight: 0.3},
			{Type: IndicatorText, Value: "$", Weight: 0.4},
			{Type: IndicatorText, Value: "Terminal", Weight: 0.3},
		},
	}

	patterns["dialog_box"] = VisualPattern{
		ID: "dialog_box", Type: PatternUIElement, ConfidenceThreshold: 0.7,
		Description: "Modal dialog box",
		Indicators: []PatternIndicator{
			{Type: IndicatorShape, Value: "rectangular_border", Weight: 0.3, Required: true},
			{Type: IndicatorPosition, Value: "center_screen", Weight: 0.2},
			{Type: IndicatorText, Value: "OK|Cancel|Apply", Weight: 0.4},
		},
	}

	return patterns
}

// MatchPatterns evaluates every known pattern against the frame and
// returns the ones that cleared their threshold, sorted by descending
// confidence.
func (m *PatternMatcher) MatchPatterns(img image.Image, ctx MatchContext) []PatternMatch {
	var matches []PatternMatch
	for _, pattern := range m.patterns {
		if match, ok := m.evaluatePattern(img, pattern, ctx); ok {
			matches = append(matches, match)
		}
	}
	sortMatchesDesc(matches)
	return matches
}

func sortMatchesDesc(matches []PatternMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Confidence > matches[j-1].Confidence; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func (m *PatternMatcher) evaluatePattern(img image.Image, pattern VisualPattern, ctx MatchContext) (PatternMatch, bool) {
	var total float32
	var matched []string
	requiredMet := true

	for _, indicator := range pattern.Indicators {
		score := m.evaluateIndicator(img, indicator, ctx)
		if score > 0 {
			total += score * indicator.Weight
			matched = append(matched, indicator.Value)
		} else if indicator.Required {
			requiredMet = false
			break
		}
	}

	if !requiredMet || total < pattern.ConfidenceThreshold {
		return PatternMatch{}, false
	}
	if total > 1.0 {
		total = 1.0
	}
	return PatternMatch{PatternID: pattern.ID, Confidence: total, MatchedIndicators: matched}, true
}

func (m *PatternMatcher) evaluateIndicator(img image.Image, indicator PatternIndicator, ctx MatchContext) float32 {
	switch indicator.Type {
	case IndicatorColor:
		return m.evaluateColorIndicator(img, indicator.Value)
	case IndicatorText:
		return evaluateTextIndicator(indicator.Value, ctx.ExtractedText)
	case IndicatorPosition:
		return evaluatePositionIndicator(indicator.Value, ctx)
	case IndicatorLayout:
		return evaluateLayoutIndicator(indicator.Value, ctx)
	case IndicatorShape, IndicatorSize, IndicatorTexture:
		// No shape/size/texture analyzer exists in this corpus beyond
		// the pixel-similarity button detector in UIDetector, which
		// operates on raw regions rather than named pattern values.
		return 0
	default:
		return 0
	}
}

func (m *PatternMatcher) evaluateColorIndicator(img image.Image, hex string) float32 {
	target, ok := parseHexColor(hex)
	if !ok {
		return 0
	}

	b := img.Bounds()
	total := float32(b.Dx() * b.Dy())
	if total == 0 {
		return 0
	}

	var matching int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := colorRGBA8(img.At(x, y))
			if colorsSimilar([3]uint8{r, g, bl}, target, 30) {
				matching++
			}
		}
	}

	ratio := float32(matching) / total
	score := ratio * 10.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func parseHexColor(hex string) ([3]uint8, bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return [3]uint8{}, false
	}
	r, err1 := strconv.ParseUint(hex[1:3], 16, 8)
	g, err2 := strconv.ParseUint(hex[3:5], 16, 8)
	b, err3 := strconv.ParseUint(hex[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return [3]uint8{}, false
	}
	return [3]uint8{uint8(r), uint8(g), uint8(b)}, true
}

func colorsSimilar(a, b [3]uint8, tolerance int) bool {
	return absInt(int(a[0])-int(b[0])) <= tolerance &&
		absInt(int(a[1])-int(b[1])) <= tolerance &&
		absInt(int(a[2])-int(b[2])) <= tolerance
}

func evaluateTextIndicator(pattern string, extractedText []string) float32 {
	for _, text := range extractedText {
		if containsFold(text, pattern) {
			return 1.0
		}
	}

	if strings.Contains(pattern, "|") || strings.Contains(pattern, "[") {
		if re, err := regexp.Compile(pattern); err == nil {
			for _, text := range extractedText {
				if re.MatchString(text) {
					return 1.0
				}
			}
		}
	}
	return 0
}

func evaluatePositionIndicator(pattern string, ctx MatchContext) float32 {
	if pattern != "center_screen" {
		return 0
	}

	centerX, centerY := ctx.ScreenWidth/2, ctx.ScreenHeight/2
	maxDistance := math.Sqrt(float64(ctx.ScreenWidth*ctx.ScreenWidth + ctx.ScreenHeight*ctx.ScreenHeight))

	for _, el := range ctx.VisualElements {
		elCenterX := el.Box.X + el.Box.Width/2
		elCenterY := el.Box.Y + el.Box.Height/2
		dist := math.Sqrt(math.Pow(float64(elCenterX-centerX), 2) + math.Pow(float64(elCenterY-centerY), 2))
		score := 1.0 - dist/maxDistance
		if score > 0.7 {
			return float32(score)
		}
	}
	return 0
}

func evaluateLayoutIndicator(pattern string, ctx MatchContext) float32 {
	switch pattern {
	case "video_grid":
		var rectangular int
		for _, el := range ctx.VisualElements {
			if el.Box.Width > 100 && el.Box.Height > 80 {
				rectangular++
			}
		}
		switch {
		case rectangular >= 4:
			return 0.8
		case rectangular >= 2:
			return 0.6
		default:
			return 0
		}
	case "sidebar_editor_panel":
		var left, center int
		for _, el := range ctx.VisualElements {
			if el.Box.X < ctx.ScreenWidth/4 {
				left++
			}
			if el.Box.X > ctx.ScreenWidth/4 && el.Box.X < 3*ctx.ScreenWidth/4 {
				center++
			}
		}
		if left > 0 && center > 0 {
			return 0.7
		}
		return 0
	case "address_bar_tabs":
		var top int
		for _, el := range ctx.VisualElements {
			if el.Box.Y < ctx.ScreenHeight/10 {
				top++
			}
		}
		if top > 3 {
			return 0.6
		}
		return 0
	default:
		return 0
	}
}
