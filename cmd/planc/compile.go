package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/metrics"
	"github.com/h1t35h/AssetOpsBench/internal/state"
)

// errCompileFailed is returned when at least one plan fails; the result itself was already printed.
var errCompileFailed = errors.New("compilation failed")

var (
	compilePlans         []string
	compileStatement     string
	compileStatementFile string
	compileFormat        string
	compileMetrics       bool
	compileNoHistory     bool
)

var compileCmd = &cobra.Command{
	Use:   "compile --plan FILE [--plan FILE...]",
	Short: "Compile plan text into a validated task graph",
	Long: `Compile one or more plan files against the agent catalog.

Each plan is checked for complete steps, contiguous numbering from 1,
backward-only dependencies and the step ceiling, and every agent reference is
resolved against the catalog. With --statement the compiled plan is also
checked for entities (assets, sensors, sites, time ranges) the statement names
but no task mentions.

Several --plan flags compile in parallel. Use "-" to read a plan from stdin.
The command exits 1 when any plan fails to compile.`,
	Example: `  planc compile --plan plan.txt
  planc compile --plan a.txt --plan b.txt --format json
  planc compile --plan plan.txt --statement "Forecast Chiller 6 load for next week"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompile(cmd)
	},
}

func init() {
	compileCmd.Flags().StringArrayVarP(&compilePlans, "plan", "p", nil, "Plan text file (repeatable, - for stdin)")
	compileCmd.Flags().StringVarP(&compileStatement, "statement", "s", "", "Problem statement used for entity grounding")
	compileCmd.Flags().StringVar(&compileStatementFile, "statement-file", "", "File holding the problem statement")
	compileCmd.Flags().StringVarP(&compileFormat, "format", "f", formatText, "Output format: text, json or yaml")
	compileCmd.Flags().BoolVar(&compileMetrics, "metrics", false, "Write Prometheus metrics to stderr after compiling")
	compileCmd.Flags().BoolVar(&compileNoHistory, "no-history", false, "Do not record compilations in the history database")
	compileCmd.MarkFlagRequired("plan")
}

func runCompile(cmd *cobra.Command) error {
	if err := validFormat(compileFormat); err != nil {
		return err
	}
	statement, err := readStatement(compileStatement, compileStatementFile)
	if err != nil {
		return err
	}

	jobs := make([]compile.Job, len(compilePlans))
	for i, path := range compilePlans {
		raw, err := readPlan(path)
		if err != nil {
			return err
		}
		jobs[i] = compile.Job{Statement: statement, Raw: raw}
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	var opts []compile.Option
	registry, recorder := metrics.NewRegistry()
	if compileMetrics {
		opts = append(opts, compile.WithObserver(recorder))
	}
	compiler := newCompiler(cat, opts...)

	results := compiler.CompileAll(jobs)

	if store := openHistory(compileNoHistory); store != nil {
		defer store.Close()
		for i, res := range results {
			record(store, state.NewRecord(compilePlans[i], statement, jobs[i].Raw, res))
		}
	}

	if err := writeResults(cmd.OutOrStdout(), compileFormat, compilePlans, results); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if compileMetrics {
		if err := metrics.Dump(registry, cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	for _, res := range results {
		if !res.OK() {
			return errCompileFailed
		}
	}
	return nil
}
