package ocr

import (
	"image"
)

// Engine recognizes text in a preprocessed grayscale image and returns a
// flat list of words. This is the single source of truth for the pipeline:
// every downstream stage (lines, paragraphs, regions, aggregation) derives
// its view purely from this list, never from the image directly.
//
// No text-recognition library exists anywhere in the retrieved corpus (the
// reference implementation itself ships only a documented placeholder —
// "in a real implementation, we'd use Tesseract here" — for its own test
// harness). Engine is therefore an interface: a production deployment
// plugs in a real recognizer; the bundled heuristicEngine extracts
// connected bright/dark runs as word-shaped boxes.
type Engine interface {
	Extract(img *image.Gray) ([]Word, error)
}

// heuristicEngine approximates word-level bounding boxes via
// row-projection + connected-run segmentation. It does not perform glyph
// recognition: its `Text` field is a positional placeholder
// ("w<line>_<index><letter>"), useful for layout-dependent downstream logic
// (classification, region banding) in the absence of a real engine.
type heuristicEngine struct {
	minRunWidth  int
	rowThreshold uint8
}

// NewHeuristicEngine returns the bundled placeholder extraction engine.
func NewHeuristicEngine() Engine {
	return &heuristicEngine{minRunWidth: 4, rowThreshold: 200}
}

func (e *heuristicEngine) Extract(img *image.Gray) ([]Word, error) {
	rows := textRows(img, e.rowThreshold)

	var words []Word
	lineID := 0
	paragraphID := 0
	inGap := true

	for _, row := range rows {
		if row.blank {
			if !inGap {
				paragraphID++
			}
			inGap = true
			continue
		}
		inGap = false

		runs := horizontalRuns(img, row.y0, row.y1, e.rowThreshold, e.minRunWidth)
		for i, run := range runs {
			words = append(words, Word{
				Text: placeholderWord(lineID, i),
				Box: BoundingBox{
					X:      run.x0,
					Y:      row.y0,
					Width:  run.x1 - run.x0,
					Height: row.y1 - row.y0,
				},
				Confidence:  0.5,
				LineID:      lineID,
				ParagraphID: paragraphID,
			})
		}
		if len(runs) > 0 {
			lineID++
		}
	}

	return words, nil
}

type row struct {
	y0, y1 int
	blank  bool
}

func textRows(img *image.Gray, threshold uint8) []row {
	b := img.Bounds()
	var rows []row
	inText := false
	start := b.Min.Y

	for y := b.Min.Y; y < b.Max.Y; y++ {
		dark := rowHasDark(img, y, threshold)
		if dark && !inText {
			start = y
			inText = true
		} else if !dark && inText {
			rows = append(rows, row{y0: start, y1: y})
			inText = false
		}
	}
	if inText {
		rows = append(rows, row{y0: start, y1: b.Max.Y})
	}

	// Insert blank markers between non-adjacent rows so paragraph breaks
	// can be detected by the caller.
	var withGaps []row
	prevEnd := b.Min.Y
	const paragraphGap = 20
	for _, r := range rows {
		if r.y0-prevEnd > paragraphGap {
			withGaps = append(withGaps, row{blank: true})
		}
		withGaps = append(withGaps, r)
		prevEnd = r.y1
	}
	return withGaps
}

func rowHasDark(img *image.Gray, y int, threshold uint8) bool {
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		if img.GrayAt(x, y).Y < threshold {
			return true
		}
	}
	return false
}

type hrun struct{ x0, x1 int }

func horizontalRuns(img *image.Gray, y0, y1 int, threshold uint8, minWidth int) []hrun {
	b := img.Bounds()
	var runs []hrun
	inRun := false
	start := b.Min.X

	colDark := func(x int) bool {
		for y := y0; y < y1; y++ {
			if img.GrayAt(x, y).Y < threshold {
				return true
			}
		}
		return false
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		dark := colDark(x)
		if dark && !inRun {
			start = x
			inRun = true
		} else if !dark && inRun {
			if x-start >= minWidth {
				runs = append(runs, hrun{x0: start, x1: x})
			}
			inRun = false
		}
	}
	if inRun && b.Max.X-start >= minWidth {
		runs = append(runs, hrun{x0: start, x1: b.Max.X})
	}
	return runs
}

func placeholderWord(line, idx int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	return "w" + itoa(line) + "_" + itoa(idx) + string(alphabet[idx%len(alphabet)])
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
