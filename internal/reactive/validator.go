package reactive

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/watchloop/observatory/internal/trace"
)

// functionNamePattern pulls the first top-level def out of generated
// Python, the function the harness below calls.
var functionNamePattern = regexp.MustCompile(`(?m)^def\s+(\w+)\s*\(`)

// validateTestCases actually runs solution.Code against each test case
// the ported Go analogue of solution_validator.rs's run_test_case: it
// writes code plus a harness that assigns tc.Input as Python statements,
// calls the solution's entry function, and prints the result, then
// compares normalized stdout against tc.ExpectedOutput. Scoped to Python
// only, matching the original's own scope (it never ran any other
// language either); other languages fall back to a shape check since
// there is no interpreter to invoke for them.
func validateTestCases(ctx context.Context, code string, language Language, cases []TestCase) []TestResult {
	if len(cases) == 0 {
		return nil
	}

	hasCode := strings.TrimSpace(code) != ""
	if !hasCode {
		results := make([]TestResult, 0, len(cases))
		for _, tc := range cases {
			results = append(results, TestResult{Description: tc.Description, Passed: false, Reason: "no solution code generated"})
		}
		return results
	}

	if language != LanguagePython {
		return shapeCheckTestCases(code, cases)
	}

	fn := functionNamePattern.FindStringSubmatch(code)
	if fn == nil {
		return shapeCheckTestCases(code, cases)
	}
	funcName := fn[1]

	results := make([]TestResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, runPythonTestCase(ctx, code, funcName, tc))
	}
	return results
}

// runPythonTestCase executes one test case by shelling out to python3,
// the same subprocess-per-case approach solution_validator.rs uses.
func runPythonTestCase(ctx context.Context, code, funcName string, tc TestCase) TestResult {
	assignments, args, err := parsePythonInput(tc.Input)
	if err != nil {
		return TestResult{Description: tc.Description, Passed: false, Reason: fmt.Sprintf("unparseable test input: %v", err)}
	}

	script := fmt.Sprintf("%s\n\n%s\nresult = %s(%s)\nprint(result)\n",
		code, strings.Join(assignments, "\n"), funcName, strings.Join(args, ", "))

	tmp, err := os.CreateTemp("", "solution-*.py")
	if err != nil {
		return TestResult{Description: tc.Description, Passed: false, Reason: fmt.Sprintf("create harness file: %v", err)}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return TestResult{Description: tc.Description, Passed: false, Reason: fmt.Sprintf("write harness file: %v", err)}
	}
	if err := tmp.Close(); err != nil {
		return TestResult{Description: tc.Description, Passed: false, Reason: fmt.Sprintf("close harness file: %v", err)}
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(runCtx, "python3", tmp.Name()).Output()
	if err != nil {
		trace.Logger(ctx).Debug("solution test case errored", "error", err)
		return TestResult{Description: tc.Description, Passed: false, Reason: fmt.Sprintf("execution error: %v", err)}
	}

	actual := strings.TrimSpace(string(out))
	passed := normalizeOutput(actual) == normalizeOutput(tc.ExpectedOutput)
	reason := fmt.Sprintf("got %q, want %q", actual, tc.ExpectedOutput)
	if passed {
		reason = "output matched"
	}
	return TestResult{Description: tc.Description, Passed: passed, Reason: reason}
}

// parsePythonInput splits a raw "nums = [2,7,11,15], target = 9" style
// line into Python assignment statements (one per top-level comma,
// respecting bracket nesting) and the bare variable names in assignment
// order, ready to pass positionally to the detected entry function.
func parsePythonInput(input string) ([]string, []string, error) {
	parts := splitTopLevel(input, ',')
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("empty test input")
	}

	var assignments, names []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		eq := strings.Index(part, "=")
		if eq < 0 {
			return nil, nil, fmt.Errorf("expected name=value, got %q", part)
		}
		name := strings.TrimSpace(part[:eq])
		if name == "" {
			return nil, nil, fmt.Errorf("missing variable name in %q", part)
		}
		assignments = append(assignments, part)
		names = append(names, name)
	}
	return assignments, names, nil
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// [], (), or {} so a list literal's internal commas survive intact.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	var depth int
	var current strings.Builder
	for _, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		}
		if r == sep && depth == 0 {
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}

// normalizeOutput mirrors solution_validator.rs's compare_outputs:
// strip whitespace and bracket characters and lowercase before
// comparing, so [0, 1] and [0,1] and (0, 1) all match.
func normalizeOutput(s string) string {
	r := strings.NewReplacer(" ", "", "[", "", "]", "", "(", "", ")", "")
	return strings.ToLower(r.Replace(s))
}

// shapeCheckTestCases is the fallback for languages with no interpreter
// wired here: it checks only that solution code was generated, not that
// it is correct.
func shapeCheckTestCases(code string, cases []TestCase) []TestResult {
	results := make([]TestResult, 0, len(cases))
	for _, tc := range cases {
		results = append(results, TestResult{
			Description: tc.Description,
			Passed:      strings.TrimSpace(code) != "",
			Reason:      "no interpreter wired for this language; shape check only",
		})
	}
	return results
}
