package tui

import (
	"fmt"
	"strings"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/graph"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

// minWidth keeps the report readable on narrow terminals.
const minWidth = 40

// RenderResult renders a compilation result as a styled report.
// width bounds the box around each step; values below 40 are raised to 40.
func RenderResult(res compile.Result, width int) string {
	if width < minWidth {
		width = minWidth
	}
	st := defaultStyles()

	var sb strings.Builder
	if res.OK() {
		sb.WriteString(st.success.Render(fmt.Sprintf("✓ Plan compiled: %d step(s)", res.Graph.Len())))
		sb.WriteString("\n\n")
		for _, n := range res.Graph.Nodes {
			sb.WriteString(renderStep(st, n.Step, &n.Agent, width))
			sb.WriteString("\n")
		}
		if waves := renderWaves(st, res.Graph); waves != "" {
			sb.WriteString(waves)
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(renderFailure(st, res.Err))
		sb.WriteString("\n")
		if len(res.Partial) > 0 {
			sb.WriteString(st.header.Render(fmt.Sprintf("Parsed before failure (%d):", len(res.Partial))))
			sb.WriteString("\n")
			for _, s := range res.Partial {
				sb.WriteString(renderStep(st, s, nil, width))
				sb.WriteString("\n")
			}
		}
	}

	if len(res.Warnings) > 0 {
		sb.WriteString(st.header.Render("Ungrounded entities:"))
		sb.WriteString("\n")
		for _, w := range res.Warnings {
			sb.WriteString(st.warning.Render(fmt.Sprintf("  ⚠ %s %q is not mentioned in any task", w.Kind, w.Text)))
			sb.WriteString("\n")
		}
	}

	// Partial steps are already listed above.
	var notes []string
	for _, d := range res.Diagnostics {
		if d.Kind != models.DiagnosticPartialStep {
			notes = append(notes, d.Message)
		}
	}
	if len(notes) > 0 {
		sb.WriteString(st.header.Render("Diagnostics:"))
		sb.WriteString("\n")
		for _, n := range notes {
			sb.WriteString(st.muted.Render("  • " + n))
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func renderFailure(st styles, err *compile.CompileError) string {
	if err == nil {
		return st.failure.Render("✗ Compilation failed")
	}
	title := st.failure.Render(fmt.Sprintf("✗ %s %s", err.Code(), err.Kind))
	return title + "\n  " + err.Error() + "\n"
}

// renderStep draws one step in a box. agent is nil for steps that were never resolved.
func renderStep(st styles, s models.ParsedStep, agent *models.ResolvedAgent, width int) string {
	var lines []string
	lines = append(lines, st.stepIndex.Render(fmt.Sprintf("#S%d", s.Index))+" "+s.TaskText)

	agentLine := "agent: " + s.AgentRef
	if agent != nil && agent.Resolved() {
		agentLine = fmt.Sprintf("agent: %s (%s)", agent.CanonicalName, agent.Confidence)
		if !strings.EqualFold(agent.CanonicalName, s.AgentRef) {
			agentLine += st.muted.Render(fmt.Sprintf(" from %q", s.AgentRef))
		}
	}
	lines = append(lines, st.agent.Render(agentLine))

	deps := "none"
	if len(s.DependencyRefs) > 0 {
		refs := make([]string, len(s.DependencyRefs))
		for i, d := range s.DependencyRefs {
			refs[i] = fmt.Sprintf("#S%d", d)
		}
		deps = strings.Join(refs, ", ")
	}
	lines = append(lines, st.muted.Render("after: "+deps))
	lines = append(lines, st.muted.Render("output: "+s.ExpectedOutput))

	return st.box.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderWaves lists the steps that can run together, one wave per line.
func renderWaves(st styles, tg *models.TaskGraph) string {
	dg, err := graph.FromTaskGraph(tg)
	if err != nil {
		return ""
	}
	waves, err := dg.Waves()
	if err != nil || len(waves) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(st.header.Render("Execution waves:"))
	sb.WriteString("\n")
	for i, wave := range waves {
		refs := make([]string, len(wave))
		for j, idx := range wave {
			refs[j] = fmt.Sprintf("#S%d", idx)
		}
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, strings.Join(refs, "  ")))
	}
	return sb.String()
}
