package ocr

import (
	"regexp"
	"strings"
)

// aggregateLines groups words sharing a LineID into Line records.
func aggregateLines(words []Word) []Line {
	byLine := make(map[int][]Word)
	var order []int
	for _, w := range words {
		if _, ok := byLine[w.LineID]; !ok {
			order = append(order, w.LineID)
		}
		byLine[w.LineID] = append(byLine[w.LineID], w)
	}

	lines := make([]Line, 0, len(order))
	for _, id := range order {
		ws := byLine[id]
		lines = append(lines, lineFromWords(ws))
	}
	return lines
}

func lineFromWords(words []Word) Line {
	if len(words) == 0 {
		return Line{}
	}
	texts := make([]string, len(words))
	minX, minY := words[0].Box.X, words[0].Box.Y
	maxX, maxY := words[0].Box.X+words[0].Box.Width, words[0].Box.Y+words[0].Box.Height
	var confSum float32

	for i, w := range words {
		texts[i] = w.Text
		if w.Box.X < minX {
			minX = w.Box.X
		}
		if w.Box.Y < minY {
			minY = w.Box.Y
		}
		if w.Box.X+w.Box.Width > maxX {
			maxX = w.Box.X + w.Box.Width
		}
		if w.Box.Y+w.Box.Height > maxY {
			maxY = w.Box.Y + w.Box.Height
		}
		confSum += w.Confidence
	}

	return Line{
		Text:       strings.Join(texts, " "),
		Box:        BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		WordCount:  len(words),
		Confidence: confSum / float32(len(words)),
	}
}

// aggregateParagraphs groups words sharing a ParagraphID into Paragraph records.
func aggregateParagraphs(words []Word) []Paragraph {
	byPara := make(map[int][]Word)
	var order []int
	for _, w := range words {
		if _, ok := byPara[w.ParagraphID]; !ok {
			order = append(order, w.ParagraphID)
		}
		byPara[w.ParagraphID] = append(byPara[w.ParagraphID], w)
	}

	paras := make([]Paragraph, 0, len(order))
	for _, id := range order {
		ws := byPara[id]
		lines := aggregateLines(ws)
		texts := make([]string, len(lines))
		var confSum float32
		minX, minY := ws[0].Box.X, ws[0].Box.Y
		maxX, maxY := ws[0].Box.X, ws[0].Box.Y
		for i, l := range lines {
			texts[i] = l.Text
			confSum += l.Confidence
		}
		for _, w := range ws {
			if w.Box.X < minX {
				minX = w.Box.X
			}
			if w.Box.Y < minY {
				minY = w.Box.Y
			}
			if w.Box.X+w.Box.Width > maxX {
				maxX = w.Box.X + w.Box.Width
			}
			if w.Box.Y+w.Box.Height > maxY {
				maxY = w.Box.Y + w.Box.Height
			}
		}
		paras = append(paras, Paragraph{
			Text:       strings.Join(texts, "\n"),
			Box:        BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
			LineCount:  len(lines),
			Confidence: confSum / float32(len(lines)),
		})
	}
	return paras
}

// aggregateRegions bands words into header/main_content/footer by vertical
// position within the frame height.
func aggregateRegions(words []Word, frameHeight int) []Region {
	topBand := frameHeight / 10
	bottomBand := frameHeight - frameHeight/5
	if frameHeight == 0 {
		topBand, bottomBand = 100, 500
	}

	var top, mid, bottom []Word
	for _, w := range words {
		switch {
		case w.Box.Y < topBand:
			top = append(top, w)
		case w.Box.Y > bottomBand:
			bottom = append(bottom, w)
		default:
			mid = append(mid, w)
		}
	}

	var regions []Region
	if len(top) > 0 {
		regions = append(regions, regionFromWords("header", top))
	}
	if len(mid) > 0 {
		regions = append(regions, regionFromWords("main_content", mid))
	}
	if len(bottom) > 0 {
		regions = append(regions, regionFromWords("footer", bottom))
	}
	return regions
}

func regionFromWords(kind string, words []Word) Region {
	texts := make([]string, len(words))
	minX, minY := words[0].Box.X, words[0].Box.Y
	maxX, maxY := words[0].Box.X, words[0].Box.Y
	for i, w := range words {
		texts[i] = w.Text
		if w.Box.X < minX {
			minX = w.Box.X
		}
		if w.Box.Y < minY {
			minY = w.Box.Y
		}
		if w.Box.X+w.Box.Width > maxX {
			maxX = w.Box.X + w.Box.Width
		}
		if w.Box.Y+w.Box.Height > maxY {
			maxY = w.Box.Y + w.Box.Height
		}
	}
	return Region{
		Kind:    kind,
		Box:     BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		Content: strings.Join(texts, " "),
	}
}

var languageFingerprints = []struct {
	lang string
	re   *regexp.Regexp
}{
	{"python", regexp.MustCompile(`\b(def |import |elif |self\.)`)},
	{"go", regexp.MustCompile(`\b(func |package |:=|chan )`)},
	{"javascript", regexp.MustCompile(`\b(function |const |=>|require\()`)},
	{"rust", regexp.MustCompile(`\b(fn |impl |let mut|use crate)`)},
	{"java", regexp.MustCompile(`\b(public class|private |System\.out)`)},
}

func detectLanguage(text string) string {
	for _, f := range languageFingerprints {
		if f.re.MatchString(text) {
			return f.lang
		}
	}
	return "unknown"
}

var senderPrefix = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 ]{0,24}):\s*(.+)$`)

// Aggregate groups a classified word list into the structured view per
// spec §4.C: code blocks (with guessed language), UI elements, parsed chat
// messages, and a flattened document body.
func Aggregate(words []Word, lines []Line) Structured {
	var s Structured

	var codeRun []Word
	flushCode := func() {
		if len(codeRun) == 0 {
			return
		}
		texts := make([]string, len(codeRun))
		minX, minY := codeRun[0].Box.X, codeRun[0].Box.Y
		maxX, maxY := codeRun[0].Box.X, codeRun[0].Box.Y
		for i, w := range codeRun {
			texts[i] = w.Text
			if w.Box.X < minX {
				minX = w.Box.X
			}
			if w.Box.Y < minY {
				minY = w.Box.Y
			}
			if w.Box.X+w.Box.Width > maxX {
				maxX = w.Box.X + w.Box.Width
			}
			if w.Box.Y+w.Box.Height > maxY {
				maxY = w.Box.Y + w.Box.Height
			}
		}
		text := strings.Join(texts, " ")
		s.CodeBlocks = append(s.CodeBlocks, CodeBlock{
			Text:     text,
			Language: detectLanguage(text),
			Box:      BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		})
		codeRun = nil
	}

	for _, w := range words {
		switch w.Type {
		case TextCode:
			codeRun = append(codeRun, w)
			continue
		case TextUIElement, TextButton, TextMenuBar, TextStatusBar, TextLabel, TextField:
			s.UIElements = append(s.UIElements, w)
		}
		flushCode()
	}
	flushCode()

	var docParts []string
	for _, l := range lines {
		if m := senderPrefix.FindStringSubmatch(l.Text); m != nil && len(m[1]) < 25 {
			s.ChatMessages = append(s.ChatMessages, ChatMessage{Sender: m[1], Text: m[2], Box: l.Box})
			continue
		}
		docParts = append(docParts, l.Text)
	}
	s.Document = strings.Join(docParts, "\n")

	return s
}
