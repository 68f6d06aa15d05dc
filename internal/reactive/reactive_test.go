package reactive

import (
	"strings"
	"testing"
)

func TestClassifierDetectsLeetCodeTwoSum(t *testing.T) {
	c := NewClassifier()
	problem, ok := c.Detect("def twoSum(nums, target):")
	if !ok {
		t.Fatal("expected a coding problem to be detected")
	}
	if problem.Type != ProblemAlgorithmChallenge {
		t.Errorf("Type = %v, want %v", problem.Type, ProblemAlgorithmChallenge)
	}
	if problem.Language != LanguagePython {
		t.Errorf("Language = %v, want %v", problem.Language, LanguagePython)
	}
	if problem.Platform != PlatformLeetCode {
		t.Errorf("Platform = %v, want %v", problem.Platform, PlatformLeetCode)
	}
	if problem.Confidence < 0.7 {
		t.Errorf("Confidence = %v, want >= 0.7", problem.Confidence)
	}
}

func TestClassifierDetectsCompilationError(t *testing.T) {
	c := NewClassifier()
	problem, ok := c.Detect("main.go:10:2: syntax error: unexpected error: expected ';', found 'EOF'")
	if !ok {
		t.Fatal("expected a coding problem to be detected")
	}
	if problem.Type != ProblemCompilationError {
		t.Errorf("Type = %v, want %v", problem.Type, ProblemCompilationError)
	}
}

func TestClassifierRejectsUnrelatedText(t *testing.T) {
	c := NewClassifier()
	if _, ok := c.Detect("Good morning, let's review the quarterly roadmap."); ok {
		t.Error("expected unrelated text to not be detected as a coding problem")
	}
}

func TestParseTaggedBlocksExtractsAllFour(t *testing.T) {
	raw := "```solution\ndef twoSum(nums, target):\n    return []\n```\n" +
		"```explanation\nUse a hash map.\n```\n" +
		"```time_complexity\nO(n)\n```\n" +
		"```space_complexity\nO(n)\n```"

	blocks := parseTaggedBlocks(raw)
	if !strings.Contains(blocks["solution"], "def twoSum") {
		t.Errorf("solution block = %q, want it to contain the function", blocks["solution"])
	}
	if blocks["explanation"] != "Use a hash map." {
		t.Errorf("explanation block = %q", blocks["explanation"])
	}
	if blocks["time_complexity"] != "O(n)" || blocks["space_complexity"] != "O(n)" {
		t.Errorf("complexity blocks = %q / %q", blocks["time_complexity"], blocks["space_complexity"])
	}
}

func TestScoreConfidenceWeightsEachComponent(t *testing.T) {
	full := GeneratedSolution{Code: "x", Explanation: "y", TimeComplexity: "O(n)", SpaceComplexity: "O(1)"}
	if got := scoreConfidence(full); got != 1.0 {
		t.Errorf("scoreConfidence(full) = %v, want 1.0", got)
	}

	codeOnly := GeneratedSolution{Code: "x"}
	if got := scoreConfidence(codeOnly); got != 0.5 {
		t.Errorf("scoreConfidence(codeOnly) = %v, want 0.5", got)
	}
}

func TestSolutionCachePutAndGetRoundTrip(t *testing.T) {
	cache := NewSolutionCache()
	solution := GeneratedSolution{ProblemID: "p1", Code: "def twoSum(): pass"}
	cache.Put(solution)

	got, ok := cache.Get("p1")
	if !ok || got.Code != solution.Code {
		t.Errorf("Get(%q) = %+v, %v; want %+v, true", "p1", got, ok, solution)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected lookup of an unknown problem id to miss")
	}
}

func TestSolutionCacheSnapshotRoundTrip(t *testing.T) {
	cache := NewSolutionCache()
	cache.Put(GeneratedSolution{ProblemID: "p1", Code: "a"})

	snapshot := cache.CacheSnapshot()
	restored := NewSolutionCache()
	restored.LoadSnapshot(snapshot)

	got, ok := restored.Get("p1")
	if !ok || got.Code != "a" {
		t.Errorf("restored cache Get(%q) = %+v, %v", "p1", got, ok)
	}
}

func TestDetectorCheckRespectsEnabledFlag(t *testing.T) {
	d := NewDetector(NewClassifier(), nil, NewSolutionCache(), 0, false)
	if _, _, ok := d.Check(nil, "def twoSum(nums, target):"); ok {
		t.Error("expected disabled detector to never trigger")
	}
}
