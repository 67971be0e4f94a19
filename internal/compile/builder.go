package compile

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/h1t35h/AssetOpsBench/internal/extract"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// AgentResolver maps a raw agent reference to a catalog agent.
type AgentResolver interface {
	Resolve(raw string) models.ResolvedAgent
}

// stepGroup collects the field records of one step index.
type stepGroup struct {
	values     map[models.Field]string
	duplicates []models.Field
}

// Build assembles extracted field records into a validated task graph.
// It is a pure function of its inputs and stops at the first structural
// violation, in this order: missing fields, malformed dependencies, step
// sequence, dependency direction, step ceiling, agent resolution.
func Build(ext *extract.Result, resolver AgentResolver, maxSteps int) Result {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	var res Result

	// Group records by step; orphans are reported, not fatal.
	groups := make(map[int]*stepGroup)
	for _, rec := range ext.Records {
		if rec.Orphan {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Kind:      models.DiagnosticOrphanField,
				StepIndex: rec.StepIndex,
				Field:     rec.Field,
				Message:   fmt.Sprintf("%s does not belong to any step block", rec.Field.Tag(rec.StepIndex)),
			})
			continue
		}
		g := groups[rec.StepIndex]
		if g == nil {
			g = &stepGroup{values: make(map[models.Field]string)}
			groups[rec.StepIndex] = g
		}
		if _, dup := g.values[rec.Field]; dup {
			g.duplicates = append(g.duplicates, rec.Field)
			continue
		}
		g.values[rec.Field] = rec.RawValue
	}

	indices := uniqueSorted(ext.Steps)

	// Every step needs all four fields, and all but Dependency must be non-blank.
	steps := make([]models.ParsedStep, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 {
			continue
		}
		g := groups[idx]
		if g == nil {
			g = &stepGroup{values: map[models.Field]string{}}
		}
		var missing []models.Field
		for _, f := range models.Fields {
			v, ok := g.values[f]
			if !ok || (f != models.FieldDependency && cleanValue(v) == "") {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			return res.fail(missingField(idx, missing), steps)
		}
		steps = append(steps, models.ParsedStep{
			Index:          idx,
			TaskText:       cleanValue(g.values[models.FieldTask]),
			AgentRef:       cleanValue(g.values[models.FieldAgent]),
			ExpectedOutput: cleanValue(g.values[models.FieldExpectedOutput]),
		})
	}

	for i := range steps {
		refs, bad, ok := parseDependencies(cleanValue(groups[steps[i].Index].values[models.FieldDependency]))
		if !ok {
			return res.fail(malformedDependency(steps[i].Index, bad), steps[:i])
		}
		steps[i].DependencyRefs = refs
	}

	// Step indices must run 1..n with no gaps, repeats or repeated fields.
	if err := checkSequence(ext.Steps, indices, groups); err != nil {
		return res.fail(err, steps)
	}

	// Indices are contiguous, so backward-only references rule out cycles.
	for _, s := range steps {
		for _, dep := range s.DependencyRefs {
			if dep < 1 || dep >= s.Index {
				return res.fail(invalidDependency(s.Index, fmt.Sprintf("#S%d", dep)), steps)
			}
		}
	}

	if len(steps) > maxSteps {
		return res.fail(stepLimitExceeded(maxSteps, len(steps)), steps)
	}

	nodes := make([]models.TaskNode, 0, len(steps))
	for _, s := range steps {
		agent := resolver.Resolve(s.AgentRef)
		if !agent.Resolved() {
			return res.fail(unresolvedAgent(s.Index, s.AgentRef), steps)
		}
		nodes = append(nodes, models.TaskNode{
			Step:         s,
			Agent:        agent,
			Predecessors: append([]int(nil), s.DependencyRefs...),
		})
	}

	res.Graph = &models.TaskGraph{Nodes: nodes}
	return res
}

// emphasis is the markdown decoration models wrap around tags and values.
const emphasis = "*_`"

// cleanValue trims whitespace and surrounding markdown emphasis from a field value.
func cleanValue(v string) string {
	return strings.TrimFunc(v, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(emphasis, r)
	})
}

// checkSequence verifies the step blocks form the run 1..n exactly once each.
func checkSequence(raw, indices []int, groups map[int]*stepGroup) *CompileError {
	seen := make(map[int]bool, len(raw))
	for _, idx := range raw {
		if idx < 1 {
			return stepSequence(idx, "step numbers must start at 1")
		}
		if seen[idx] {
			return stepSequence(idx, "step %d appears more than once", idx)
		}
		seen[idx] = true
	}
	for i, idx := range indices {
		if want := i + 1; idx != want {
			return stepSequence(want, "step %d is missing, found step %d instead", want, idx)
		}
	}
	for _, idx := range indices {
		if g := groups[idx]; g != nil && len(g.duplicates) > 0 {
			return stepSequence(idx, "%s appears more than once", g.duplicates[0].Tag(idx))
		}
	}
	return nil
}

// fail records the error and the steps parsed so far as diagnostics.
func (r Result) fail(err *CompileError, parsed []models.ParsedStep) Result {
	r.Err = err
	r.Graph = nil
	r.Partial = append([]models.ParsedStep(nil), parsed...)
	for _, s := range parsed {
		r.Diagnostics = append(r.Diagnostics, models.Diagnostic{
			Kind:      models.DiagnosticPartialStep,
			StepIndex: s.Index,
			Message:   fmt.Sprintf("step %d parsed before compilation stopped", s.Index),
		})
	}
	return r
}

func uniqueSorted(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
