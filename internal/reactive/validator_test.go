package reactive

import (
	"context"
	"os/exec"
	"testing"
)

func skipIfNoPython3(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not found in PATH - skipping test execution test")
	}
}

func TestSplitTopLevelRespectsBracketNesting(t *testing.T) {
	got := splitTopLevel("nums = [2,7,11,15], target = 9", ',')
	want := []string{"nums = [2,7,11,15]", " target = 9"}
	if len(got) != len(want) {
		t.Fatalf("splitTopLevel() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParsePythonInputOrdersVariables(t *testing.T) {
	assignments, names, err := parsePythonInput("nums = [2,7,11,15], target = 9")
	if err != nil {
		t.Fatalf("parsePythonInput() error = %v", err)
	}
	if len(assignments) != 2 || len(names) != 2 {
		t.Fatalf("parsePythonInput() = %v, %v, want 2 of each", assignments, names)
	}
	if names[0] != "nums" || names[1] != "target" {
		t.Errorf("names = %v, want [nums target]", names)
	}
}

func TestParsePythonInputRejectsMissingEquals(t *testing.T) {
	if _, _, err := parsePythonInput("just a string"); err == nil {
		t.Error("expected an error for input with no name=value pairs")
	}
}

func TestNormalizeOutputIgnoresSpacingAndBrackets(t *testing.T) {
	if normalizeOutput("[0, 1]") != normalizeOutput("[0,1]") {
		t.Error("expected normalizeOutput to ignore spacing differences")
	}
	if normalizeOutput("(0, 1)") != normalizeOutput("[0, 1]") {
		t.Error("expected normalizeOutput to ignore bracket style differences")
	}
}

func TestValidateTestCasesNoCodeFailsEveryCase(t *testing.T) {
	cases := []TestCase{{Input: "nums = [1,2], target = 3", ExpectedOutput: "[0, 1]", Description: "basic"}}
	results := validateTestCases(context.Background(), "", LanguagePython, cases)
	if len(results) != 1 || results[0].Passed {
		t.Fatalf("validateTestCases(empty code) = %+v, want a single failing result", results)
	}
}

func TestValidateTestCasesNonPythonFallsBackToShapeCheck(t *testing.T) {
	cases := []TestCase{{Input: "nums = [1,2], target = 3", ExpectedOutput: "[0, 1]", Description: "basic"}}
	results := validateTestCases(context.Background(), "func twoSum(nums []int, target int) []int { return nil }", LanguageGo, cases)
	if len(results) != 1 || !results[0].Passed {
		t.Fatalf("validateTestCases(go code) = %+v, want a passing shape-check result", results)
	}
}

func TestValidateTestCasesRunsPythonAndDetectsFailure(t *testing.T) {
	skipIfNoPython3(t)

	code := "def twoSum(nums, target):\n    for i in range(len(nums)):\n        for j in range(i+1, len(nums)):\n            if nums[i] + nums[j] == target:\n                return [i, j]\n    return []"
	cases := []TestCase{
		{Input: "nums = [2,7,11,15], target = 9", ExpectedOutput: "[0, 1]", Description: "basic case"},
		{Input: "nums = [2,7,11,15], target = 9", ExpectedOutput: "[5, 5]", Description: "deliberately wrong expectation"},
	}
	results := validateTestCases(context.Background(), code, LanguagePython, cases)
	if len(results) != 2 {
		t.Fatalf("validateTestCases() returned %d results, want 2", len(results))
	}
	if !results[0].Passed {
		t.Errorf("case 0 = %+v, want Passed", results[0])
	}
	if results[1].Passed {
		t.Errorf("case 1 = %+v, want not Passed", results[1])
	}
}
