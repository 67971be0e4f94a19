// Package prompt builds the text sent to the planning model. Every builder is
// a pure function returning a new string.
package prompt

import (
	"fmt"
	"strings"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// planPrompt is the prompt template for plan generation.
// Arguments: agent descriptions, step ceiling, question.
const planPrompt = `You are planning how a team of specialist agents will answer a question about industrial assets.

Available agents:
%s
Write a plan of at most %d steps. Use ONLY the agents listed above, spelled exactly as listed.

Format every step exactly like this, with N replaced by the step number (1, 2, 3, ...):
#TaskN: <what this step does, naming the concrete assets, sensors, sites and time ranges involved>
#AgentN: <agent name>
#DependencyN: <None, or the earlier steps this step needs, as #S1, #S2, ...>
#ExpectedOutputN: <what this step produces>

Rules:
- Number steps consecutively starting at 1
- A step may only depend on steps with a smaller number
- Write None when a step depends on nothing
- Repeat asset identifiers such as "Chiller 6" in every task that uses them
- Output the plan only, with no other text

Question:
%s`

// repairPrompt is the corrective re-prompt template.
// Arguments: question, previous plan, problems.
const repairPrompt = `Your previous plan for this question could not be used.

Question:
%s

Previous plan:
%s

Problems:
%s
Rewrite the complete plan in the same format, fixing every problem listed. Output the plan only.`

// DescribeAgents returns a numbered list of the catalog's agents with their
// descriptions and example tasks.
func DescribeAgents(catalog *models.Catalog) string {
	var b strings.Builder
	for i, a := range catalog.Agents() {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Name)
		if d := strings.TrimSpace(a.Description); d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
		b.WriteString("\n")
		for _, ex := range a.ExampleTasks {
			fmt.Fprintf(&b, "   Example: %s\n", strings.TrimSpace(ex))
		}
	}
	return b.String()
}

// BuildPlanPrompt returns the planning prompt for question.
// Non-positive maxSteps uses the compiler default.
func BuildPlanPrompt(question string, catalog *models.Catalog, maxSteps int) string {
	if maxSteps <= 0 {
		maxSteps = compile.DefaultMaxSteps
	}
	return fmt.Sprintf(planPrompt, DescribeAgents(catalog), maxSteps, strings.TrimSpace(question))
}

// BuildRepairPrompt returns a corrective prompt describing why raw failed to compile.
func BuildRepairPrompt(question, raw string, result compile.Result) string {
	return fmt.Sprintf(repairPrompt, strings.TrimSpace(question), strings.TrimSpace(raw), DescribeProblems(result))
}

// DescribeProblems lists the compile error and orphan fields of result, one per line.
func DescribeProblems(result compile.Result) string {
	var b strings.Builder
	if result.Err != nil {
		fmt.Fprintf(&b, "- %s\n", describeError(result.Err))
	}
	for _, d := range result.Diagnostics {
		if d.Kind == models.DiagnosticOrphanField {
			fmt.Fprintf(&b, "- %s has no matching step; remove it or add step %d\n", d.Field.Tag(d.StepIndex), d.StepIndex)
		}
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "- the plan never mentions %s %q from the question\n", strings.ReplaceAll(string(w.Kind), "_", " "), w.Text)
	}
	return b.String()
}

func describeError(err *compile.CompileError) string {
	switch err.Kind {
	case compile.KindMalformedPlanText:
		return "no steps were found; use the #TaskN/#AgentN/#DependencyN/#ExpectedOutputN format"
	case compile.KindMissingField:
		tags := make([]string, len(err.Fields))
		for i, f := range err.Fields {
			tags[i] = f.Tag(err.Step)
		}
		return fmt.Sprintf("step %d is missing %s", err.Step, strings.Join(tags, ", "))
	case compile.KindStepSequence:
		return fmt.Sprintf("steps must be numbered 1, 2, 3, ... exactly once each (%s)", err.Reason)
	case compile.KindMalformedDependency:
		return fmt.Sprintf("step %d has dependency %q; write None or references like #S1", err.Step, err.Value)
	case compile.KindInvalidDependency:
		return fmt.Sprintf("step %d depends on %s, but a step may only depend on earlier steps", err.Step, err.Value)
	case compile.KindStepLimitExceeded:
		return fmt.Sprintf("the plan has %d steps; use at most %d", err.Actual, err.Limit)
	case compile.KindUnresolvedAgent:
		return fmt.Sprintf("step %d uses agent %q, which is not in the list of available agents", err.Step, err.Value)
	default:
		return err.Error()
	}
}
