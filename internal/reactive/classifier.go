package reactive

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const detectionThreshold = 0.3

// patternFamily is one classifier cascade entry: a problem type and the
// regexes whose match fraction becomes its base confidence.
type patternFamily struct {
	problemType ProblemType
	patterns    []*regexp.Regexp
}

var cascade = []patternFamily{
	{
		problemType: ProblemCompilationError,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)error:.*expected`),
			regexp.MustCompile(`(?i)\bsyntaxerror\b`),
			regexp.MustCompile(`(?i)cannot find symbol`),
			regexp.MustCompile(`(?i)undefined reference`),
			regexp.MustCompile(`(?i)\bcompilation failed\b`),
		},
	},
	{
		problemType: ProblemRuntimeError,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)traceback \(most recent call last\)`),
			regexp.MustCompile(`(?i)\bpanic:`),
			regexp.MustCompile(`(?i)exception in thread`),
			regexp.MustCompile(`(?i)\bsegmentation fault\b`),
			regexp.MustCompile(`(?i)nullpointerexception`),
		},
	},
	{
		problemType: ProblemTestFailure,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bFAIL(ED)?\b`),
			regexp.MustCompile(`(?i)assertionerror`),
			regexp.MustCompile(`(?i)expected:.*but was`),
			regexp.MustCompile(`(?i)\d+ (failed|passed)`),
		},
	},
	{
		problemType: ProblemAlgorithmChallenge,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bdef\s+\w+\(`),
			regexp.MustCompile(`(?i)\bfunction\s+\w+\(`),
			regexp.MustCompile(`(?i)\bclass\s+solution\b`),
			regexp.MustCompile(`\bnums\b`),
			regexp.MustCompile(`\btarget\b`),
		},
	},
}

var platformPatterns = map[Platform][]*regexp.Regexp{
	PlatformLeetCode: {
		regexp.MustCompile(`(?i)leetcode`),
		regexp.MustCompile(`(?i)\bclass\s+solution\b`),
		regexp.MustCompile(`\bnums\b[\s\S]*\btarget\b`),
		regexp.MustCompile(`(?i)runtime:\s*\d+\s*ms`),
	},
	PlatformHackerRank: {
		regexp.MustCompile(`(?i)hackerrank`),
		regexp.MustCompile(`(?i)sample input`),
		regexp.MustCompile(`(?i)sample output`),
	},
	PlatformCodeforces: {
		regexp.MustCompile(`(?i)codeforces`),
		regexp.MustCompile(`(?i)problem\s+[a-z]\b`),
		regexp.MustCompile(`(?i)time limit per test`),
	},
}

var languagePatterns = map[Language][]*regexp.Regexp{
	LanguagePython:     {regexp.MustCompile(`(?i)\bdef\s+\w+\(`), regexp.MustCompile(`(?i)\bimport\s+\w+`)},
	LanguageJavaScript: {regexp.MustCompile(`(?i)\bfunction\s+\w+\(`), regexp.MustCompile(`(?i)\bconst\s+\w+\s*=`)},
	LanguageJava:       {regexp.MustCompile(`(?i)\bpublic\s+class\b`), regexp.MustCompile(`(?i)system\.out\.println`)},
	LanguageCpp:        {regexp.MustCompile(`#include\s*<`), regexp.MustCompile(`(?i)\bstd::`)},
	LanguageGo:         {regexp.MustCompile(`(?i)\bfunc\s+\w+\(`), regexp.MustCompile(`(?i)\bpackage\s+main\b`)},
}

var testCaseLinePattern = regexp.MustCompile(`(?i)^(input|output|expected)\s*:\s*(.+)$`)
var constraintLinePattern = regexp.MustCompile(`(?i)^\s*[-*]?\s*\d+\s*<=|(?i)^\s*constraints?\s*:`)

// Classifier runs the detection cascade over a block of extracted text
// (OCR words, vision labels, or the rolling context buffer joined
// together) and emits at most one DetectedCodingProblem.
type Classifier struct{}

// NewClassifier builds a stateless cascade classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Detect runs every pattern family against text and returns the
// highest-scoring match above detectionThreshold, or false if nothing
// clears it.
func (c *Classifier) Detect(text string) (DetectedCodingProblem, bool) {
	var best patternFamily
	var bestScore float32

	for _, family := range cascade {
		score := matchFraction(text, family.patterns)
		if score > bestScore {
			bestScore = score
			best = family
		}
	}
	if bestScore < detectionThreshold {
		return DetectedCodingProblem{}, false
	}

	platform := detectPlatform(text)
	if platform != PlatformUnknown {
		bestScore = minFloat32(1.0, bestScore+0.2)
	}

	problem := DetectedCodingProblem{
		ID:          uuid.New().String(),
		Type:        best.problemType,
		Title:       titleFor(best.problemType, platform),
		Description: strings.TrimSpace(text),
		Language:    detectLanguage(text),
		Platform:    platform,
		CodeContext: text,
		TestCases:   extractTestCases(text),
		Constraints: extractConstraints(text),
		Confidence:  bestScore,
	}
	return problem, true
}

func matchFraction(text string, patterns []*regexp.Regexp) float32 {
	if len(patterns) == 0 {
		return 0
	}
	var matched int
	for _, p := range patterns {
		if p.MatchString(text) {
			matched++
		}
	}
	return float32(matched) / float32(len(patterns))
}

func detectPlatform(text string) Platform {
	var best Platform = PlatformUnknown
	var bestScore float32
	for platform, patterns := range platformPatterns {
		score := matchFraction(text, patterns)
		if score > bestScore {
			bestScore = score
			best = platform
		}
	}
	if bestScore == 0 {
		return PlatformUnknown
	}
	return best
}

func detectLanguage(text string) Language {
	var best Language = LanguageUnknown
	var bestScore float32
	for lang, patterns := range languagePatterns {
		score := matchFraction(text, patterns)
		if score > bestScore {
			bestScore = score
			best = lang
		}
	}
	if bestScore == 0 {
		return LanguageUnknown
	}
	return best
}

func extractTestCases(text string) []TestCase {
	var cases []TestCase
	var pending TestCase
	for _, line := range strings.Split(text, "\n") {
		match := testCaseLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		switch strings.ToLower(match[1]) {
		case "input":
			if pending.Input != "" {
				cases = append(cases, pending)
				pending = TestCase{}
			}
			pending.Input = match[2]
		case "output", "expected":
			pending.ExpectedOutput = match[2]
		}
	}
	if pending.Input != "" || pending.ExpectedOutput != "" {
		cases = append(cases, pending)
	}
	return cases
}

func extractConstraints(text string) []string {
	var constraints []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if constraintLinePattern.MatchString(trimmed) {
			constraints = append(constraints, trimmed)
		}
	}
	return constraints
}

func titleFor(problemType ProblemType, platform Platform) string {
	if platform != PlatformUnknown {
		return string(platform) + " " + string(problemType)
	}
	return string(problemType)
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
