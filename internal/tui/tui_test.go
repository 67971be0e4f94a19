package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

func testCompiler() *compile.Compiler {
	return compile.New(models.NewCatalog(
		models.AgentDescriptor{Name: "IoT Data Download"},
		models.AgentDescriptor{Name: "TSFM"},
		models.AgentDescriptor{Name: "Work Order Generator"},
	))
}

const diamondPlan = "#Task1: List chillers at site MAIN\n#Agent1: IoT Data Download\n#Dependency1: None\n#ExpectedOutput1: ids\n" +
	"#Task2: Download Chiller 6 data\n#Agent2: iot data download agent\n#Dependency2: #S1\n#ExpectedOutput2: data\n" +
	"#Task3: Forecast load\n#Agent3: TSFM\n#Dependency3: #S1\n#ExpectedOutput3: forecast\n" +
	"#Task4: Open work order\n#Agent4: Work Order Generator\n#Dependency4: #S2, #S3\n#ExpectedOutput4: wo\n"

func TestRenderResult_Success(t *testing.T) {
	res := testCompiler().CompileFor("Forecast Chiller 9 load at site MAIN", diamondPlan)
	if !res.OK() {
		t.Fatalf("compile failed: %v", res.Error())
	}

	out := RenderResult(res, 80)

	for _, want := range []string{
		"Plan compiled: 4 step(s)",
		"#S1 List chillers at site MAIN",
		"agent: IoT Data Download (partial)",
		`from "iot data download agent"`,
		"after: #S2, #S3",
		"Execution waves:",
		"1. #S1",
		"2. #S2  #S3",
		"3. #S4",
		`asset "Chiller 9"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderResult() missing %q\n%s", want, out)
		}
	}
}

func TestRenderResult_Failure(t *testing.T) {
	plan := "#Task1: x\n#Agent1: TSFM\n#Dependency1: None\n#ExpectedOutput1: y\n" +
		"#Task2: z\n#Agent2: Foobar\n#Dependency2: #S1\n#ExpectedOutput2: w\n#Agent9: stray\n"
	res := testCompiler().Compile(plan)
	if res.OK() {
		t.Fatal("expected failure")
	}

	out := RenderResult(res, 10)

	for _, want := range []string{
		"PLAN-007 UnresolvedAgentError",
		`"Foobar" matches no catalog agent`,
		"Parsed before failure (2):",
		"agent: Foobar",
		"Diagnostics:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderResult() missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Execution waves") {
		t.Error("failed result should not render waves")
	}
}

func TestRenderResult_NoSteps(t *testing.T) {
	out := RenderResult(testCompiler().Compile("nothing"), 80)
	if !strings.Contains(out, "PLAN-001") {
		t.Errorf("RenderResult() = %q, want PLAN-001", out)
	}
	if strings.Contains(out, "Parsed before failure") {
		t.Error("no partial steps expected")
	}
}

func TestPlanViewer_NotReadyUntilSized(t *testing.T) {
	v := NewPlanViewer("plan.txt", testCompiler().Compile(diamondPlan))

	if got := v.View(); got != "Loading..." {
		t.Errorf("View() before size = %q", got)
	}

	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := v.View()
	if !strings.Contains(view, "plan.txt") || !strings.Contains(view, "ok") {
		t.Errorf("header missing in view:\n%s", view)
	}
	if !strings.Contains(view, "#S1") {
		t.Errorf("body missing in view:\n%s", view)
	}
}

func TestPlanViewer_ResultMsg(t *testing.T) {
	c := testCompiler()
	v := NewPlanViewer("plan", c.Compile(diamondPlan))
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 60})

	v.Update(ResultMsg{Result: c.Compile("nothing")})

	if v.Result().OK() {
		t.Error("Result() should be the replacement failure")
	}
	view := v.View()
	if !strings.Contains(view, "failed") || !strings.Contains(view, "recompiled 1") {
		t.Errorf("view not refreshed:\n%s", view)
	}
}

func TestPlanViewer_ErrorMsg(t *testing.T) {
	v := NewPlanViewer("plan", testCompiler().Compile(diamondPlan))
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 60})

	v.Update(ErrorMsg{Err: errors.New("catalog reload failed")})

	if !strings.Contains(v.View(), "catalog reload failed") {
		t.Error("footer should show the error")
	}
}

func TestPlanViewer_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPlanViewer("plan", testCompiler().Compile(diamondPlan))
			_, cmd := v.Update(tt.msg)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("command returned %T, want tea.QuitMsg", cmd())
			}
		})
	}
}

func TestPlanViewer_ScrollKeys(t *testing.T) {
	v := NewPlanViewer("plan", testCompiler().Compile(diamondPlan))
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 6})

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	if !v.viewport.AtBottom() {
		t.Error("G should scroll to bottom")
	}
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	if !v.viewport.AtTop() {
		t.Error("g should scroll to top")
	}
}
