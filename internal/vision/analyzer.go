package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
)

// ContextAnalyzer assembles the final VisualContext: dominant colors,
// theme inference, layout inference, attention areas, interaction
// elements, and content-region density. Grounded on
// savant-vision/src/analyzer.rs's ColorAnalyzer/LayoutAnalyzer/
// AttentionAnalyzer trio, folded into one Go type per the package's
// file-per-detector convention.
type ContextAnalyzer struct{}

func NewContextAnalyzer() *ContextAnalyzer { return &ContextAnalyzer{} }

func (a *ContextAnalyzer) AnalyzeContext(ctx context.Context, img image.Image, appCtx AppContext, elements []VisualElement) (VisualContext, error) {
	theme := analyzeTheme(img)
	dominant := extractDominantColors(img)
	layout := analyzeLayout(img, elements)
	attention := findAttentionAreas(img, elements)
	interaction := a.analyzeInteractionElements(elements)
	regions := a.analyzeContentRegions(img, elements)

	return VisualContext{
		DominantColors:      dominant,
		LayoutAnalysis:      layout,
		AttentionAreas:      attention,
		InteractionElements: interaction,
		ContentRegions:      regions,
		Theme:               theme,
	}, nil
}

func (a *ContextAnalyzer) analyzeInteractionElements(elements []VisualElement) []InteractionElement {
	var out []InteractionElement
	for _, el := range elements {
		if !el.Properties.IsInteractive {
			continue
		}
		var itype InteractionType
		switch el.Type {
		case ElementButton:
			itype = InteractionButton
		case ElementTextField:
			itype = InteractionInput
		default:
			continue
		}
		out = append(out, InteractionElement{
			Type: itype,
			Position: ContentArea{
				X: el.Box.X, Y: el.Box.Y, Width: el.Box.Width, Height: el.Box.Height,
				ContentType: ContentUnknown,
			},
			State:              InteractionNormal,
			AccessibilityScore: accessibilityScore(el),
		})
	}
	return out
}

func accessibilityScore(el VisualElement) float32 {
	score := float32(0.5)
	area := el.Box.Width * el.Box.Height
	if area > 2000 {
		score += 0.2
	}
	if el.Box.X > 50 && el.Box.Y > 50 {
		score += 0.1
	}
	if el.Properties.TextContent != "" {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

const regionTileSize = 200

func (a *ContextAnalyzer) analyzeContentRegions(img image.Image, elements []VisualElement) []ContentRegion {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	var regions []ContentRegion
	for y := 0; y < height; y += regionTileSize {
		for x := 0; x < width; x += regionTileSize {
			rw := minInt(regionTileSize, width-x)
			rh := minInt(regionTileSize, height-y)

			count := 0
			for _, el := range elements {
				if el.Box.X >= x && el.Box.Y >= y && el.Box.X < x+rw && el.Box.Y < y+rh {
					count++
				}
			}

			var density ContentDensity
			switch {
			case count <= 2:
				density = DensitySparse
			case count <= 5:
				density = DensityMedium
			case count <= 10:
				density = DensityDense
			default:
				density = DensityOvercrowded
			}

			regions = append(regions, ContentRegion{
				Region:      ContentArea{X: x, Y: y, Width: rw, Height: rh, ContentType: ContentUnknown},
				ContentType: ContentUnknown,
				Density:     density,
			})
		}
	}
	return regions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

const colorSampleStride = 10

func analyzeTheme(img image.Image) SceneTheme {
	counts := sampleColorCounts(img, colorSampleStride)

	mostCommon := [3]uint8{255, 255, 255}
	var maxCount int
	for c, n := range counts {
		if n > maxCount {
			maxCount = n
			mostCommon = c
		}
	}

	background := hexColor(mostCommon)
	brightness := (float32(mostCommon[0])*0.299 + float32(mostCommon[1])*0.587 + float32(mostCommon[2])*0.114) / 255.0
	isDark := brightness < 0.5

	textColor := "#000000"
	contrast := float32(5.0)
	if isDark {
		textColor = "#ffffff"
		contrast = 7.0
	}

	return SceneTheme{
		IsDarkMode:      isDark,
		BackgroundColor: background,
		TextColor:       textColor,
		ContrastRatio:   contrast,
	}
}

const dominantColorSampleStride = 20

func extractDominantColors(img image.Image) []string {
	counts := sampleColorCounts(img, dominantColorSampleStride)

	type entry struct {
		color [3]uint8
		count int
	}
	entries := make([]entry, 0, len(counts))
	for c, n := range counts {
		entries = append(entries, entry{c, n})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count > entries[j].count })

	const topN = 5
	if len(entries) > topN {
		entries = entries[:topN]
	}
	colors := make([]string, len(entries))
	for i, e := range entries {
		colors[i] = hexColor(e.color)
	}
	return colors
}

func sampleColorCounts(img image.Image, sampleRate int) map[[3]uint8]int {
	b := img.Bounds()
	counts := make(map[[3]uint8]int)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i%sampleRate == 0 {
				r, g, bl, _ := colorRGBA8(img.At(x, y))
				counts[[3]uint8{r, g, bl}]++
			}
			i++
		}
	}
	return counts
}

func colorRGBA8(c color.Color) (r, g, b, a uint8) {
	rr, gg, bb, aa := c.RGBA()
	return uint8(rr >> 8), uint8(gg >> 8), uint8(bb >> 8), uint8(aa >> 8)
}

func hexColor(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func analyzeLayout(img image.Image, elements []VisualElement) LayoutAnalysis {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	return LayoutAnalysis{
		LayoutType:         detectLayoutType(width, elements),
		PrimaryContentArea: findPrimaryContentArea(width, height),
		SidebarPresent:     hasSidebarRegion(width, elements),
		HeaderPresent:      hasHeaderRegion(height, elements),
		FooterPresent:      hasFooterRegion(height, elements),
	}
}

func detectLayoutType(width int, elements []VisualElement) LayoutType {
	var left, center, right int
	for _, el := range elements {
		switch {
		case el.Box.X < width/3:
			left++
		case el.Box.X < 2*width/3:
			center++
		default:
			right++
		}
	}

	switch {
	case left > 0 && center > 0 && right > 0:
		return LayoutThreeColumn
	case (left > 0 && center > 0) || (center > 0 && right > 0):
		return LayoutTwoColumn
	case len(elements) > 20:
		return LayoutGrid
	default:
		return LayoutSingleColumn
	}
}

func hasHeaderRegion(height int, elements []VisualElement) bool {
	threshold := height / 10
	for _, el := range elements {
		if el.Box.Y < threshold {
			return true
		}
	}
	return false
}

func hasFooterRegion(height int, elements []VisualElement) bool {
	threshold := height - height/10
	for _, el := range elements {
		if el.Box.Y > threshold {
			return true
		}
	}
	return false
}

func hasSidebarRegion(width int, elements []VisualElement) bool {
	threshold := width / 6
	for _, el := range elements {
		if el.Box.X < threshold || el.Box.X > width-threshold {
			return true
		}
	}
	return false
}

func findPrimaryContentArea(width, height int) *ContentArea {
	return &ContentArea{
		X: width / 4, Y: height / 6,
		Width: width / 2, Height: 2 * height / 3,
		ContentType: ContentUnknown,
	}
}

func findAttentionAreas(img image.Image, elements []VisualElement) []AttentionArea {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	centerX, centerY := width/2, height/2
	maxDistance := math.Sqrt(float64(width*width + height*height))
	totalArea := float64(width * height)

	var areas []AttentionArea
	for _, el := range elements {
		elCenterX := el.Box.X + el.Box.Width/2
		elCenterY := el.Box.Y + el.Box.Height/2

		dist := math.Sqrt(math.Pow(float64(elCenterX-centerX), 2) + math.Pow(float64(elCenterY-centerY), 2))
		centerScore := 1.0 - dist/maxDistance

		elArea := float64(el.Box.Width * el.Box.Height)
		sizeScore := (elArea / totalArea) * 10.0

		score := centerScore*0.4 + sizeScore*0.6
		if score > 1.0 {
			score = 1.0
		}

		if score > 0.3 {
			reason := ReasonLargeSize
			if centerScore > 0.7 {
				reason = ReasonCenterPosition
			}
			areas = append(areas, AttentionArea{
				Region: ContentArea{
					X: el.Box.X, Y: el.Box.Y, Width: el.Box.Width, Height: el.Box.Height,
					ContentType: ContentUnknown,
				},
				AttentionScore: float32(score),
				Reason:         reason,
			})
		}
	}
	return areas
}
