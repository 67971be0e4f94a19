package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/api"
	"github.com/h1t35h/AssetOpsBench/internal/compile"
	"github.com/h1t35h/AssetOpsBench/internal/config"
	"github.com/h1t35h/AssetOpsBench/internal/prompt"
	"github.com/h1t35h/AssetOpsBench/internal/state"
)

var (
	generateStatement     string
	generateStatementFile string
	generateRetries       int
	generateFormat        string
	generateShowRaw       bool
	generateNoHistory     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate --statement TEXT",
	Short: "Generate a plan with Claude and compile it",
	Long: `Build the planning prompt, ask Claude for a plan and compile the answer.

When the plan fails to compile, planc sends a corrective prompt that names the
exact problem (missing field, bad dependency, unknown agent, ...) and compiles
the new answer, up to --retries times.

Uses ANTHROPIC_API_KEY or anthropic.api_key, or AWS Bedrock when
anthropic.use_bedrock is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateStatement, "statement", "s", "", "Problem statement")
	generateCmd.Flags().StringVar(&generateStatementFile, "statement-file", "", "File holding the problem statement")
	generateCmd.Flags().IntVar(&generateRetries, "retries", 1, "Corrective re-prompts after a failed compilation")
	generateCmd.Flags().StringVarP(&generateFormat, "format", "f", formatText, "Output format: text, json or yaml")
	generateCmd.Flags().BoolVar(&generateShowRaw, "raw", false, "Also print the model's plan text")
	generateCmd.Flags().BoolVar(&generateNoHistory, "no-history", false, "Do not record attempts in the history database")
}

// planGenerator is the model call used by generate; *api.Planner satisfies it.
type planGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// attempt is one model answer and its compilation.
type attempt struct {
	Raw    string
	Result compile.Result
}

// generateAndCompile asks gen for a plan and re-prompts with the compile
// failure until it compiles or retries run out. onAttempt sees every attempt.
func generateAndCompile(ctx context.Context, gen planGenerator, compiler *compile.Compiler, statement string, retries int, onAttempt func(n int, a attempt)) (attempt, error) {
	if retries < 0 {
		retries = 0
	}
	text := prompt.BuildPlanPrompt(statement, compiler.Catalog(), compiler.MaxSteps())

	var last attempt
	for n := 1; n <= retries+1; n++ {
		raw, err := gen.Generate(ctx, text)
		if err != nil {
			return last, fmt.Errorf("attempt %d: %w", n, err)
		}
		last = attempt{Raw: raw, Result: compiler.CompileFor(statement, raw)}
		if onAttempt != nil {
			onAttempt(n, last)
		}
		if last.Result.OK() {
			return last, nil
		}
		text = prompt.BuildRepairPrompt(statement, raw, last.Result)
	}
	return last, nil
}

func newPlanner() (*api.Planner, error) {
	ccfg := api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		MaxTokens:     int64(cfg.Anthropic.MaxTokens),
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}
	if !ccfg.UseAWSBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		ccfg.APIKey = key
	}
	client, err := api.NewClient(ccfg)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return api.NewPlanner(client), nil
}

func runGenerate(cmd *cobra.Command) error {
	if err := validFormat(generateFormat); err != nil {
		return err
	}
	statement, err := readStatement(generateStatement, generateStatementFile)
	if err != nil {
		return err
	}
	if statement == "" {
		return errors.New("a problem statement is required (--statement or --statement-file)")
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	planner, err := newPlanner()
	if err != nil {
		return err
	}
	compiler := newCompiler(cat)

	store := openHistory(generateNoHistory)
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := generateAndCompile(ctx, planner, compiler, statement, generateRetries, func(n int, a attempt) {
		rec := state.NewRecord("generate", statement, a.Raw, a.Result)
		rec.Attempt = n
		record(store, rec)
		if a.Result.OK() {
			printStatus("✓", fmt.Sprintf("attempt %d compiled", n), okColor)
		} else {
			printStatus("✗", fmt.Sprintf("attempt %d: %s", n, a.Result.Err.Error()), failColor)
		}
	})
	if err != nil {
		return err
	}

	in, out := planner.Tracker().Total()
	printStatus("•", fmt.Sprintf("%d call(s), %d input / %d output tokens, ~$%.4f", planner.Tracker().Calls(), in, out, planner.Tracker().Cost()), okColor)

	if generateShowRaw {
		fmt.Fprintln(cmd.OutOrStdout(), final.Raw)
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if err := writeResults(cmd.OutOrStdout(), generateFormat, []string{"generate"}, []compile.Result{final.Result}); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !final.Result.OK() {
		return errCompileFailed
	}
	return nil
}
