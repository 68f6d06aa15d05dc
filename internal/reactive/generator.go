package reactive

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/watchloop/observatory/internal/apperrors"
	"github.com/watchloop/observatory/internal/llmx"
	"github.com/watchloop/observatory/internal/trace"
)

const solutionGeneratorSystemPrompt = `You are a coding expert. Given a problem description, respond with
four tagged code blocks, in this order, and nothing else:

` + "```solution" + `
<the complete solution code>
` + "```" + `
` + "```explanation" + `
<a short explanation of the approach>
` + "```" + `
` + "```time_complexity" + `
<big-O time complexity>
` + "```" + `
` + "```space_complexity" + `
<big-O space complexity>
` + "```"

var taggedBlockPattern = regexp.MustCompile("(?s)```(solution|explanation|time_complexity|space_complexity)\\s*\\n(.*?)```")

// Generator produces a GeneratedSolution for a DetectedCodingProblem by
// prompting an LLM and parsing its tagged-block response, the Go
// analogue of solution_validator.rs's generate_solution/clean_solution_code
// pair (generalized from a single hardcoded Ollama model to the shared
// preference-list dispatcher).
type Generator struct {
	dispatcher *llmx.Dispatcher
	modelName  string
}

// NewGenerator builds a solution generator over a shared LLM dispatcher.
func NewGenerator(dispatcher *llmx.Dispatcher, modelName string) *Generator {
	return &Generator{dispatcher: dispatcher, modelName: modelName}
}

// Generate builds a prompt from problem, asks the dispatcher for a
// completion, and parses the result into a GeneratedSolution. Test
// cases present on problem are run against the generated code (see
// validateTestCases).
func (g *Generator) Generate(ctx context.Context, problem DetectedCodingProblem) (GeneratedSolution, error) {
	ctx, span := trace.StartSpan(ctx, "reactive_generate_solution")
	defer span.End()

	start := time.Now()
	prompt := buildPrompt(problem)
	raw, err := g.dispatcher.Complete(ctx, solutionGeneratorSystemPrompt, prompt)
	if err != nil {
		return GeneratedSolution{}, apperrors.Wrap(err, apperrors.KindSurfaced, apperrors.CodeLLMUnavailable,
			"solution generation failed")
	}
	elapsed := time.Since(start).Milliseconds()

	blocks := parseTaggedBlocks(raw)
	solution := GeneratedSolution{
		ProblemID:        problem.ID,
		Code:             blocks["solution"],
		Explanation:      blocks["explanation"],
		TimeComplexity:   blocks["time_complexity"],
		SpaceComplexity:  blocks["space_complexity"],
		GenerationTimeMs: elapsed,
		ModelUsed:        g.modelName,
	}
	solution.TestResults = validateTestCases(ctx, solution.Code, problem.Language, problem.TestCases)
	solution.Confidence = scoreConfidence(solution)

	span.SetAttr("confidence", solution.Confidence)
	return solution, nil
}

func buildPrompt(problem DetectedCodingProblem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", problem.Title)
	fmt.Fprintf(&b, "Description: %s\n", problem.Description)
	fmt.Fprintf(&b, "Language: %s\n", problem.Language)
	fmt.Fprintf(&b, "Platform: %s\n", problem.Platform)
	if len(problem.TestCases) > 0 {
		b.WriteString("Test cases:\n")
		for _, tc := range problem.TestCases {
			fmt.Fprintf(&b, "  input=%s expected=%s\n", tc.Input, tc.ExpectedOutput)
		}
	}
	if len(problem.Constraints) > 0 {
		b.WriteString("Constraints:\n")
		for _, c := range problem.Constraints {
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	return b.String()
}

func parseTaggedBlocks(raw string) map[string]string {
	blocks := make(map[string]string)
	for _, match := range taggedBlockPattern.FindAllStringSubmatch(raw, -1) {
		blocks[match[1]] = strings.TrimSpace(match[2])
	}
	return blocks
}

// scoreConfidence weights (has-code, has-explanation, has-complexities)
// per spec.md's "weighted sum over has-code, has-explanation,
// has-complexities" description.
func scoreConfidence(s GeneratedSolution) float32 {
	var score float32
	if strings.TrimSpace(s.Code) != "" {
		score += 0.5
	}
	if strings.TrimSpace(s.Explanation) != "" {
		score += 0.25
	}
	if strings.TrimSpace(s.TimeComplexity) != "" && strings.TrimSpace(s.SpaceComplexity) != "" {
		score += 0.25
	}
	return score
}
