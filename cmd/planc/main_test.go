package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/state"
	"github.com/h1t35h/AssetOpsBench/pkg/models"
)

const testCatalogYAML = `agents:
  - name: IoT Data Download
    description: Lists sites, assets and sensors
    keywords: [iot, sensor data]
  - name: TSFM
    description: Time series forecasting
    keywords: [forecast]
`

const goodPlan = "#Task1: List chillers at site MAIN\n#Agent1: IoT Data Download\n#Dependency1: None\n#ExpectedOutput1: ids\n" +
	"#Task2: Forecast Chiller 6 load\n#Agent2: TSFM\n#Dependency2: #S1\n#ExpectedOutput2: forecast\n"

const forwardPlan = "#Task1: List chillers\n#Agent1: IoT Data Download\n#Dependency1: #S2\n#ExpectedOutput1: ids\n" +
	"#Task2: Forecast load\n#Agent2: TSFM\n#Dependency2: None\n#ExpectedOutput2: forecast\n"

// resetFlags restores every flag to its default so commands can run repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// testEnv isolates config and history and writes the catalog into dir.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("PLANC_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("ANTHROPIC_API_KEY", "")
	writeTestFile(t, dir, "agents.yaml", testCatalogYAML)
	return dir
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompileCommand_JSON(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", goodPlan)

	out, err := runCLI(t, "compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"),
		"--format", "json", "--no-history", "--statement", "Forecast Chiller 6 load at site MAIN")
	require.NoError(t, err)

	var got struct {
		Source string `json:"source"`
		OK     bool   `json:"ok"`
		Steps  int    `json:"steps"`
		Graph  struct {
			Nodes []models.TaskNode `json:"nodes"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, plan, got.Source)
	assert.True(t, got.OK)
	assert.Equal(t, 2, got.Steps)
	require.Len(t, got.Graph.Nodes, 2)
	assert.Equal(t, "TSFM", got.Graph.Nodes[1].Agent.CanonicalName)
	assert.Equal(t, []int{1}, got.Graph.Nodes[1].Predecessors)
}

func TestCompileCommand_Failure(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", forwardPlan)

	out, err := runCLI(t, "compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"), "--no-history")
	assert.ErrorIs(t, err, errCompileFailed)
	assert.Contains(t, out, "PLAN-005")
}

func TestCompileCommand_MultiplePlansYAML(t *testing.T) {
	dir := testEnv(t)
	good := writeTestFile(t, dir, "good.txt", goodPlan)
	bad := writeTestFile(t, dir, "bad.txt", "no plan here")

	out, err := runCLI(t, "compile", "--plan", good, "--plan", bad,
		"--catalog", filepath.Join(dir, "agents.yaml"), "--format", "yaml", "--no-history")
	assert.ErrorIs(t, err, errCompileFailed)

	var got []struct {
		Source string `yaml:"source"`
		OK     bool   `yaml:"ok"`
		Error  *struct {
			Code string `yaml:"code"`
		} `yaml:"error"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got), out)
	require.Len(t, got, 2)
	assert.Equal(t, good, got[0].Source)
	assert.True(t, got[0].OK)
	assert.Equal(t, bad, got[1].Source)
	assert.False(t, got[1].OK)
	require.NotNil(t, got[1].Error)
	assert.Equal(t, "PLAN-001", got[1].Error.Code)
}

func TestCompileCommand_RecordsHistory(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", goodPlan)

	_, err := runCLI(t, "compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"))
	require.NoError(t, err)

	out, err := runCLI(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, plan)
	assert.Contains(t, out, "success")

	db, err := state.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())
	records, err := db.ListCompilations(0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	out, err = runCLI(t, "history", "show", records[0].ID, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"outcome": "success"`)
}

func TestCompileCommand_Metrics(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", goodPlan)

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"), "--no-history", "--metrics"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, errOut.String(), `planc_compilations_total{outcome="success"} 1`)
}

func TestCompileCommand_InvalidFormat(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", goodPlan)

	_, err := runCLI(t, "compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestCompileCommand_MaxStepsFlag(t *testing.T) {
	dir := testEnv(t)
	plan := writeTestFile(t, dir, "plan.txt", goodPlan)

	out, err := runCLI(t, "compile", "--plan", plan, "--catalog", filepath.Join(dir, "agents.yaml"),
		"--max-steps", "1", "--no-history")
	assert.ErrorIs(t, err, errCompileFailed)
	assert.Contains(t, out, "PLAN-006")
}

func TestCatalogInit(t *testing.T) {
	dir := testEnv(t)
	path := filepath.Join(dir, "new.yaml")

	_, err := runCLI(t, "catalog", "init", path)
	require.NoError(t, err)

	out, err := runCLI(t, "catalog", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Work Order Generator")

	_, err = runCLI(t, "catalog", "init", path)
	require.Error(t, err)
	_, err = runCLI(t, "catalog", "init", path, "--force")
	require.NoError(t, err)
}

func TestConfigCommand(t *testing.T) {
	testEnv(t)

	out, err := runCLI(t, "config", "compiler.max_steps")
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)

	_, err = runCLI(t, "config", "compiler.max_steps", "7")
	require.NoError(t, err)

	out, err = runCLI(t, "config", "compiler.max_steps")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	_, err = runCLI(t, "config", "no.such.key")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	testEnv(t)
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "planc version "), out)
}

func TestReadStatement(t *testing.T) {
	dir := t.TempDir()
	file := writeTestFile(t, dir, "q.txt", "  Forecast Chiller 6  \n")

	got, err := readStatement("", file)
	require.NoError(t, err)
	assert.Equal(t, "Forecast Chiller 6", got)

	got, err = readStatement("inline", "")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	_, err = readStatement("inline", file)
	assert.Error(t, err)
}

// scriptedGenerator returns its answers in order and records each prompt.
type scriptedGenerator struct {
	answers []string
	prompts []string
	err     error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.prompts = append(g.prompts, prompt)
	answer := g.answers[0]
	if len(g.answers) > 1 {
		g.answers = g.answers[1:]
	}
	return answer, nil
}

func testCompiler() *compile.Compiler {
	return compile.New(models.NewCatalog(
		models.AgentDescriptor{Name: "IoT Data Download"},
		models.AgentDescriptor{Name: "TSFM"},
	))
}

func TestGenerateAndCompile_RepairsFailedPlan(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{forwardPlan, goodPlan}}

	var seen []int
	final, err := generateAndCompile(context.Background(), gen, testCompiler(), "Forecast Chiller 6 load", 1,
		func(n int, a attempt) { seen = append(seen, n) })
	require.NoError(t, err)

	assert.True(t, final.Result.OK())
	assert.Equal(t, goodPlan, final.Raw)
	assert.Equal(t, []int{1, 2}, seen)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "Forecast Chiller 6 load")
	assert.Contains(t, gen.prompts[1], "step 1 depends on #S2")
}

func TestGenerateAndCompile_GivesUp(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{forwardPlan}}

	final, err := generateAndCompile(context.Background(), gen, testCompiler(), "q", 2, nil)
	require.NoError(t, err)

	assert.False(t, final.Result.OK())
	assert.ErrorIs(t, final.Result.Error(), compile.ErrInvalidDependency)
	assert.Len(t, gen.prompts, 3)
}

func TestGenerateAndCompile_NoRetries(t *testing.T) {
	gen := &scriptedGenerator{answers: []string{forwardPlan}}

	final, err := generateAndCompile(context.Background(), gen, testCompiler(), "q", -1, nil)
	require.NoError(t, err)
	assert.False(t, final.Result.OK())
	assert.Len(t, gen.prompts, 1)
}

func TestGenerateAndCompile_GeneratorError(t *testing.T) {
	boom := errors.New("rate limited")
	gen := &scriptedGenerator{err: boom}

	_, err := generateAndCompile(context.Background(), gen, testCompiler(), "q", 1, nil)
	assert.ErrorIs(t, err, boom)
}

// fakeSource is an in-memory catalogSource.
type fakeSource struct {
	current *models.Catalog
	updates chan *models.Catalog
	errs    chan error
	done    chan struct{}
}

func (f *fakeSource) Current() *models.Catalog        { return f.current }
func (f *fakeSource) Updates() <-chan *models.Catalog { return f.updates }
func (f *fakeSource) Errors() <-chan error            { return f.errs }
func (f *fakeSource) Done() <-chan struct{}           { return f.done }

func TestWatchLoop(t *testing.T) {
	src := &fakeSource{
		current: models.NewCatalog(models.AgentDescriptor{Name: "IoT Data Download"}),
		updates: make(chan *models.Catalog, 1),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}

	var calls []int
	compiled := make(chan struct{}, 2)
	run := func(cat *models.Catalog) (compile.Result, error) {
		calls = append(calls, cat.Len())
		compiled <- struct{}{}
		return compile.New(cat).Compile(goodPlan), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	errc := make(chan error, 1)
	go func() { errc <- watchLoop(ctx, src, &out, run) }()

	waitCompiled := func() {
		t.Helper()
		select {
		case <-compiled:
		case <-time.After(5 * time.Second):
			t.Fatal("watch loop did not compile")
		}
	}

	waitCompiled()
	src.errs <- errors.New("bad yaml")
	src.updates <- models.NewCatalog(
		models.AgentDescriptor{Name: "IoT Data Download"},
		models.AgentDescriptor{Name: "TSFM"},
	)
	waitCompiled()
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}

	assert.Equal(t, []int{1, 2}, calls)
	assert.Contains(t, out.String(), "PLAN-007")
	assert.Contains(t, out.String(), "Plan compiled: 2 step(s)")
}

func TestWatchLoop_StopsWhenSourceCloses(t *testing.T) {
	src := &fakeSource{
		current: models.NewCatalog(models.AgentDescriptor{Name: "TSFM"}),
		updates: make(chan *models.Catalog),
		errs:    make(chan error),
		done:    make(chan struct{}),
	}
	close(src.done)

	err := watchLoop(context.Background(), src, &bytes.Buffer{}, func(cat *models.Catalog) (compile.Result, error) {
		return compile.Result{}, errors.New("plan missing")
	})
	assert.NoError(t, err)
}
