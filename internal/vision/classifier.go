package vision

import (
	"context"
	"image"
	"strings"
)

// ActivityClassifier combines detected applications and element counts
// into a primary activity plus weighted secondary evidence. The
// reference implementation's classifier module was not present in the
// retrieved source tree (only its public re-export was); this cascade
// is built directly from how lib.rs's analyze_screen calls it and the
// AppType taxonomy it classifies against.
type ActivityClassifier struct{}

func NewActivityClassifier() *ActivityClassifier { return &ActivityClassifier{} }

func (c *ActivityClassifier) ClassifyActivity(ctx context.Context, img image.Image, appCtx AppContext, elements []VisualElement) (ActivityClassification, error) {
	scores := map[Activity]float32{}
	var evidence []ActivityEvidence

	add := func(activity Activity, weight float32, desc string) {
		scores[activity] += weight
		evidence = append(evidence, ActivityEvidence{Description: desc, Weight: weight})
	}

	for _, app := range appCtx.DetectedApplications {
		switch app.Type.Category {
		case "video_conferencing":
			add(ActivityVideoMeeting, app.Confidence, "detected video conferencing application "+app.Type.Variant)
		case "ide", "development":
			add(ActivityCoding, app.Confidence, "detected development application "+app.Type.Variant)
		case "browser":
			add(ActivityBrowsing, app.Confidence, "detected browser "+app.Type.Variant)
		case "productivity":
			add(ActivityWriting, app.Confidence, "detected productivity application "+app.Type.Variant)
		case "entertainment":
			add(ActivityWatching, app.Confidence, "detected entertainment application "+app.Type.Variant)
		case "communication":
			add(ActivityCommunicating, app.Confidence, "detected communication application "+app.Type.Variant)
		case "system_utility":
			add(ActivitySystemTask, app.Confidence, "detected system utility "+app.Type.Variant)
		}
	}

	if appCtx.IDEContext != nil {
		add(ActivityCoding, 0.3, "IDE context present")
	}
	if appCtx.MeetingContext != nil {
		add(ActivityVideoMeeting, 0.3, "meeting context present")
	}

	var codeElements, chatElements, videoElements int
	for _, el := range elements {
		switch el.Type {
		case ElementIDE, ElementTerminal:
			codeElements++
		case ElementChat:
			chatElements++
		case ElementVideoCall, ElementVideo:
			videoElements++
		}
	}
	if codeElements > 0 {
		add(ActivityCoding, float32(codeElements)*0.1, "code/terminal elements present")
	}
	if chatElements > 0 {
		add(ActivityCommunicating, float32(chatElements)*0.1, "chat elements present")
	}
	if videoElements > 0 {
		add(ActivityVideoMeeting, float32(videoElements)*0.1, "video elements present")
	}

	if len(scores) == 0 {
		if len(elements) == 0 && len(appCtx.DetectedApplications) == 0 {
			return ActivityClassification{Primary: ActivityIdle, PrimaryConfidence: 0.5, Evidence: evidence}, nil
		}
		return ActivityClassification{Primary: ActivityUnknown, PrimaryConfidence: 0, Evidence: evidence}, nil
	}

	primary := ActivityUnknown
	var primaryScore float32
	for activity, score := range scores {
		if score > primaryScore {
			primary = activity
			primaryScore = score
		}
	}

	var secondary []Activity
	for activity, score := range scores {
		if activity != primary && score > 0.15 {
			secondary = append(secondary, activity)
		}
	}

	confidence := primaryScore
	if confidence > 1.0 {
		confidence = 1.0
	}

	return ActivityClassification{
		Primary:           primary,
		PrimaryConfidence: confidence,
		Secondary:         secondary,
		Evidence:          evidence,
	}, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var languageKeywords = map[string][]string{
	"python":     {"def ", "import ", "self.", "elif "},
	"go":         {"func ", "package ", ":=", "fmt."},
	"javascript": {"function ", "const ", "=>", "require("},
	"rust":       {"fn ", "let mut", "impl ", "::"},
	"java":       {"public class", "private ", "System.out"},
}

// detectLanguageFromText fingerprints the active file's language from
// OCR'd text when an IDE is detected, mirroring the keyword-fingerprint
// approach internal/ocr uses for code-block language detection.
func detectLanguageFromText(extractedText []string) string {
	joined := strings.Join(extractedText, "\n")
	for lang, keywords := range languageKeywords {
		for _, kw := range keywords {
			if strings.Contains(joined, kw) {
				return lang
			}
		}
	}
	return ""
}
