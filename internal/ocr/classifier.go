package ocr

import (
	"regexp"
	"strings"
)

// classifyRule binds a regexp to the TextType it marks.
type classifyRule struct {
	typ TextType
	re  *regexp.Regexp
}

// Classifier assigns a TextType to each word via position, pattern, then
// content heuristics, in that precedence order (first match wins).
type Classifier struct {
	rules []classifyRule
}

// NewClassifier builds the classifier's pattern table.
func NewClassifier() *Classifier {
	rules := []classifyRule{
		{TextCode, regexp.MustCompile(`^\s*(def|function|class|interface|struct|impl|fn|let|const|var)\s+`)},
		{TextCode, regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*\([^)]*\)\s*[{:]?`)},
		{TextCode, regexp.MustCompile(`^\s*[{}]\s*$`)},
		{TextCode, regexp.MustCompile(`^\s*(//|/\*|#|<!--|%)`)},

		{TextTerminalOutput, regexp.MustCompile(`^\$\s+`)},
		{TextTerminalOutput, regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*@[a-zA-Z0-9_-]+:`)},
		{TextTerminalOutput, regexp.MustCompile(`^[A-Z]:\\.*>`)},
		{TextTerminalOutput, regexp.MustCompile(`^(Error:|Warning:|Info:)`)},

		{TextChatMessage, regexp.MustCompile(`^\d{1,2}:\d{2}\s*[AP]M`)},
		{TextChatMessage, regexp.MustCompile(`^(You:|Me:)`)},
		{TextChatMessage, regexp.MustCompile(`^@[a-zA-Z0-9_]+`)},

		{TextEmailContent, regexp.MustCompile(`^(From:|To:|Subject:|Date:|Re:|Fwd:)`)},
		{TextEmailContent, regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},

		{TextWebPageContent, regexp.MustCompile(`^https?://`)},
		{TextWebPageContent, regexp.MustCompile(`www\.[a-zA-Z0-9.\-]+`)},

		{TextMeetingContent, regexp.MustCompile(`^(Meeting|Conference|Call|Participants:|Attendees:|Zoom|Teams|Meet|Webex|Mute|Unmute|Camera|Share Screen)`)},

		{TextBrowserUI, regexp.MustCompile(`^(Back|Forward|Refresh|Bookmarks|New Tab|Private|Incognito|Downloads|History)`)},

		{TextIDEContent, regexp.MustCompile(`^(File|Edit|View|Run|Debug|Tools|Problems|Output|Terminal|Explorer)$`)},
		{TextIDEContent, regexp.MustCompile(`^\d+\s*\|\s*`)},

		{TextErrorMessage, regexp.MustCompile(`^(Error:|ERROR:|Exception:|EXCEPTION:|SyntaxError|TypeError|ValueError|RuntimeError|Fatal:|FATAL:)`)},
		{TextErrorMessage, regexp.MustCompile(`^\s*at\s+\S+:\d+:\d+`)},

		{TextButton, regexp.MustCompile(`^(OK|Cancel|Apply|Submit|Save|Delete|Yes|No|Close|Exit|Next|Previous)$`)},
	}
	return &Classifier{rules: rules}
}

// Classify returns the semantic type for a word given its bounding box.
func (c *Classifier) Classify(text string, box BoundingBox) TextType {
	if t, ok := classifyByPosition(text, box); ok {
		return t
	}

	for _, rule := range c.rules {
		if rule.re.MatchString(text) {
			return rule.typ
		}
	}

	return classifyByContent(text)
}

func classifyByPosition(text string, box BoundingBox) (TextType, bool) {
	const thinBoxHeight = 30
	const menuBarHeight = 50
	const menuBarBand = 50
	const shortWordLen = 20

	if box.Height < thinBoxHeight {
		return TextUIElement, true
	}
	if box.Y < menuBarBand && box.Height < menuBarHeight {
		return TextMenuBar, true
	}
	if !strings.ContainsAny(text, " \t") && len(text) < shortWordLen {
		return TextUIElement, true
	}
	return TextUnknown, false
}

var codeKeywords = []string{
	"function", "return", "import", "export", "class", "interface",
	"struct", "enum", "const", "let", "var", "def", "async", "await",
}

var uiKeywords = []string{"click", "button", "menu", "dialog", "window", "tab"}

func classifyByContent(text string) TextType {
	lower := strings.ToLower(text)

	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return TextCode
		}
	}
	for _, kw := range uiKeywords {
		if strings.Contains(lower, kw) {
			return TextUIElement
		}
	}

	const proseLenThreshold = 50
	if len(text) > proseLenThreshold && strings.Contains(text, " ") &&
		!strings.Contains(text, "{") && !strings.Contains(text, ";") {
		return TextDocument
	}

	return TextUnknown
}
