package vision

import (
	"context"
	"image"
	"image/color"
)

// ObjectDetector is a placeholder for ML-driven shape/object detection
// (CLIP/YOLO-class models). No such model ships in this corpus; it
// always returns an empty slice, matching the reference implementation's
// own placeholder.
type ObjectDetector struct{}

func NewObjectDetector() *ObjectDetector { return &ObjectDetector{} }

func (d *ObjectDetector) DetectObjects(ctx context.Context, img image.Image) ([]VisualElement, error) {
	return nil, nil
}

// buttonPattern bounds a plausible button-shaped region.
type buttonPattern struct {
	minWidth, maxWidth   int
	minHeight, maxHeight int
}

// UIDetector finds windows and UI controls via pixel-level heuristics:
// no window-system API is available from pure image data, so window
// detection is a placeholder, while button detection performs genuine
// border-color-similarity sampling.
type UIDetector struct {
	patterns []buttonPattern
}

func NewUIDetector() *UIDetector {
	return &UIDetector{
		patterns: []buttonPattern{{minWidth: 50, maxWidth: 200, minHeight: 20, maxHeight: 50}},
	}
}

func (d *UIDetector) DetectElements(ctx context.Context, img image.Image) ([]VisualElement, error) {
	var elements []VisualElement

	windows, err := d.detectWindows(ctx, img)
	if err != nil {
		return nil, err
	}
	elements = append(elements, windows...)

	rgba := toRGBA(img)
	elements = append(elements, d.detectButtons(rgba)...)
	elements = append(elements, d.detectTextFields(rgba)...)
	elements = append(elements, d.detectMediaElements(rgba)...)

	return elements, nil
}

// detectWindows would use platform-specific window-enumeration APIs
// combined with visual analysis; none is reachable from raw pixel data.
func (d *UIDetector) detectWindows(ctx context.Context, img image.Image) ([]VisualElement, error) {
	return nil, nil
}

const buttonSampleW, buttonSampleH = 100, 30

func (d *UIDetector) detectButtons(img *image.RGBA) []VisualElement {
	b := img.Bounds()
	var buttons []VisualElement

	// Coarse stride keeps this tractable on full-resolution frames; the
	// reference implementation scans every pixel but operates on much
	// smaller test fixtures.
	const stride = 10
	for y := b.Min.Y; y < b.Max.Y-buttonSampleH; y += stride {
		for x := b.Min.X; x < b.Max.X-buttonSampleW; x += stride {
			if el, ok := d.analyzePotentialButton(img, x, y); ok {
				buttons = append(buttons, el)
			}
		}
	}
	return buttons
}

func (d *UIDetector) analyzePotentialButton(img *image.RGBA, x, y int) (VisualElement, bool) {
	b := img.Bounds()
	if x+buttonSampleW >= b.Max.X || y+buttonSampleH >= b.Max.Y {
		return VisualElement{}, false
	}

	topLeft := img.RGBAAt(x, y)
	topRight := img.RGBAAt(x+buttonSampleW, y)
	bottomLeft := img.RGBAAt(x, y+buttonSampleH)
	bottomRight := img.RGBAAt(x+buttonSampleW, y+buttonSampleH)

	const tolerance = 20
	if pixelsSimilar(topLeft, topRight, tolerance) &&
		pixelsSimilar(topLeft, bottomLeft, tolerance) &&
		pixelsSimilar(topLeft, bottomRight, tolerance) {
		return VisualElement{
			Type: ElementButton,
			Box: BoundingBox{
				X: x, Y: y, Width: buttonSampleW, Height: buttonSampleH,
				Confidence: 0.6,
			},
			Properties: ElementProperties{IsInteractive: true},
			Confidence: 0.6,
		}, true
	}
	return VisualElement{}, false
}

func pixelsSimilar(a, b color.RGBA, tolerance int) bool {
	return absInt(int(a.R)-int(b.R)) <= tolerance &&
		absInt(int(a.G)-int(b.G)) <= tolerance &&
		absInt(int(a.B)-int(b.B)) <= tolerance
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// detectTextFields and detectMediaElements are placeholders: reliable
// text-field and media-region detection needs either OCR geometry (see
// internal/ocr) or object-detection models, neither of which this
// detector has standalone access to.
func (d *UIDetector) detectTextFields(img *image.RGBA) []VisualElement  { return nil }
func (d *UIDetector) detectMediaElements(img *image.RGBA) []VisualElement { return nil }

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

// colorPattern is one color-tolerance signature within an appSignature.
type colorPattern struct {
	colors    [][3]uint8
	tolerance int
}

// appSignature is a recognizable app keyed by a set of dominant colors.
type appSignature struct {
	appType      AppType
	colorPatterns []colorPattern
	textTokens   []string
}

// appSignatureDatabase holds the known per-application visual signatures.
type appSignatureDatabase struct {
	signatures []appSignature
}

func newAppSignatureDatabase() *appSignatureDatabase {
	return &appSignatureDatabase{
		signatures: []appSignature{
			{
				appType: AppType{Category: "video_conferencing", Variant: "zoom"},
				colorPatterns: []colorPattern{
					{colors: [][3]uint8{{45, 140, 255}}, tolerance: 20}, // Zoom blue
				},
				textTokens: []string{"Zoom", "Participants"},
			},
			{
				appType: AppType{Category: "ide", Variant: "vscode"},
				colorPatterns: []colorPattern{
					{colors: [][3]uint8{{30, 30, 30}, {0, 122, 204}}, tolerance: 15}, // VS Code dark theme
				},
				textTokens: []string{"Visual Studio Code", "Explorer"},
			},
		},
	}
}

// matchSignatures scores every known signature against the frame and
// returns one DetectedApp per signature whose combined confidence clears
// the threshold. extractedText supplies the OCR-derived text score that
// color matching alone cannot provide.
func (db *appSignatureDatabase) matchSignatures(img image.Image, extractedText []string) []DetectedApp {
	var detected []DetectedApp
	for _, sig := range db.signatures {
		if app, ok := db.matchSignature(img, sig, extractedText); ok {
			detected = append(detected, app)
		}
	}
	return detected
}

func (db *appSignatureDatabase) matchSignature(img image.Image, sig appSignature, extractedText []string) (DetectedApp, bool) {
	colorScore := db.checkColorPatterns(img, sig.colorPatterns)
	textScore := db.checkTextTokens(sig.textTokens, extractedText)
	const visualScore = 0.0 // no template/shape matcher in this corpus

	confidence := colorScore*0.4 + textScore*0.3 + visualScore*0.3
	if confidence <= 0.5 {
		return DetectedApp{}, false
	}

	b := img.Bounds()
	return DetectedApp{
		Type:         sig.appType,
		Confidence:   confidence,
		ScreenRegion: BoundingBox{Width: b.Dx(), Height: b.Dy(), Confidence: confidence},
		WindowState:  WindowFocused,
	}, true
}

func (db *appSignatureDatabase) checkColorPatterns(img image.Image, patterns []colorPattern) float32 {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	totalPixels := float32(b.Dx() * b.Dy())
	if totalPixels == 0 {
		return 0
	}

	var maxScore float32
	for _, pattern := range patterns {
		var matching int
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				px := rgba.RGBAAt(x, y)
				for _, target := range pattern.colors {
					if colorMatches(px, target, pattern.tolerance) {
						matching++
						break
					}
				}
			}
		}
		score := float32(matching) / totalPixels
		if score > maxScore {
			maxScore = score
		}
	}
	return maxScore
}

func colorMatches(px color.RGBA, target [3]uint8, tolerance int) bool {
	return absInt(int(px.R)-int(target[0])) <= tolerance &&
		absInt(int(px.G)-int(target[1])) <= tolerance &&
		absInt(int(px.B)-int(target[2])) <= tolerance
}

func (db *appSignatureDatabase) checkTextTokens(tokens []string, extractedText []string) float32 {
	if len(tokens) == 0 || len(extractedText) == 0 {
		return 0
	}
	for _, token := range tokens {
		for _, text := range extractedText {
			if containsFold(text, token) {
				return 1.0
			}
		}
	}
	return 0
}

// AppDetector matches known visual signatures against the frame and
// assembles per-category app contexts.
type AppDetector struct {
	signatures *appSignatureDatabase
}

func NewAppDetector() *AppDetector {
	return &AppDetector{signatures: newAppSignatureDatabase()}
}

// DetectApplications runs signature matching plus category-specific
// context detection. extractedText is the OCR word list for this frame
// (may be nil when OCR was skipped), used as the text-presence signal
// color matching alone cannot provide.
func (d *AppDetector) DetectApplications(ctx context.Context, img image.Image, extractedText []string) (AppContext, error) {
	detected := d.signatures.matchSignatures(img, extractedText)

	return AppContext{
		DetectedApplications: detected,
		BrowserContext:       d.detectBrowserContext(detected),
		IDEContext:           d.detectIDEContext(detected, extractedText),
		MeetingContext:       d.detectMeetingContext(detected),
	}, nil
}

func (d *AppDetector) detectBrowserContext(detected []DetectedApp) *BrowserContext {
	for _, app := range detected {
		if app.Type.Category == "browser" {
			return &BrowserContext{BrowserType: app.Type.Variant, PageType: "other"}
		}
	}
	return nil
}

func (d *AppDetector) detectIDEContext(detected []DetectedApp, extractedText []string) *IDEContext {
	for _, app := range detected {
		if app.Type.Category == "ide" {
			return &IDEContext{IDEType: app.Type.Variant, Language: detectLanguageFromText(extractedText)}
		}
	}
	return nil
}

func (d *AppDetector) detectMeetingContext(detected []DetectedApp) *MeetingContext {
	for _, app := range detected {
		if app.Type.Category == "video_conferencing" {
			return &MeetingContext{Platform: app.Type.Variant}
		}
	}
	return nil
}
