// Package reactive fuses OCR and vision output into coding-problem
// detections and drives an LLM-backed solution generator for them.
// Grounded on original_source/crates/savant-video/src/processor.rs's
// frame-analysis loop shape and crates/e2e-coding-detection/src/
// solution_validator.rs's prompt/response contract for Two Sum-style
// problems; the cooldown-gated trigger reuses the teacher's
// orchestrator/autoanswer.Detector idiom.
package reactive

import "time"

// ProblemType classifies what kind of coding problem was detected.
type ProblemType string

const (
	ProblemAlgorithmChallenge ProblemType = "algorithm_challenge"
	ProblemCompilationError   ProblemType = "compilation_error"
	ProblemRuntimeError       ProblemType = "runtime_error"
	ProblemTestFailure        ProblemType = "test_failure"
)

// Platform identifies the coding-challenge site a problem's chrome
// matches, if any.
type Platform string

const (
	PlatformLeetCode   Platform = "leetcode"
	PlatformHackerRank Platform = "hackerrank"
	PlatformCodeforces Platform = "codeforces"
	PlatformUnknown    Platform = "unknown"
)

// Language is the programming language a problem or solution is in.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageGo         Language = "go"
	LanguageUnknown    Language = "unknown"
)

// TestCase is one input/expected-output pair extracted from a problem's
// on-screen text.
type TestCase struct {
	Input          string
	ExpectedOutput string
	Description    string
}

// DetectedCodingProblem is one cascade match: a classified problem with
// its extracted context, addressable by ID for solution lookups.
type DetectedCodingProblem struct {
	ID          string
	Type        ProblemType
	Title       string
	Description string
	Language    Language
	Platform    Platform
	CodeContext string
	ErrorDetails *string
	StarterCode  *string
	TestCases    []TestCase
	Constraints  []string
	Confidence   float32
	Timestamp    time.Time
}

// TestResult records whether a generated solution actually satisfies
// one extracted test case: for Python, the code is run against the
// test input and its real output compared to ExpectedOutput; for
// other languages, with no interpreter wired, it falls back to a
// presence/shape check (see validateTestCases).
type TestResult struct {
	Description string
	Passed      bool
	Reason      string
}

// GeneratedSolution is the paired answer to a DetectedCodingProblem,
// addressed back to it by ProblemID only (never holding a pointer to
// the problem itself, so the cache never forms a cycle).
type GeneratedSolution struct {
	ProblemID        string
	Code             string
	Explanation      string
	TimeComplexity   string
	SpaceComplexity  string
	TestResults      []TestResult
	Confidence       float32
	GenerationTimeMs int64
	ModelUsed        string
}
