package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/config"
)

var (
	// cfg is loaded once per invocation in the persistent pre-run.
	cfg *config.Config

	flagCatalog  string
	flagMaxSteps int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "planc",
	Short: "Plan compiler for AssetOpsBench agent plans",
	Long: `planc turns the free-text plans an LLM writes for industrial asset
operations into validated task graphs.

A plan is a sequence of steps tagged #Task<N>, #Agent<N>, #Dependency<N> and
#ExpectedOutput<N>. planc checks that steps are complete, numbered from 1
without gaps, depend only on earlier steps and stay within the step ceiling,
then maps every agent reference onto the agent catalog. Entities named in the
problem statement that no task mentions are reported as warnings.

Core capabilities:
- Compiles one or many plan files in parallel
- Generates plans with Claude and re-prompts on structural failures
- Watches the agent catalog and recompiles on change
- Keeps a SQLite history of every compilation`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			printStatus("⚠", "could not read .env: "+err.Error(), warnColor)
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errCompileFailed) {
			printStatus("✗", err.Error(), failColor)
		}
		os.Exit(1)
	}
}

// debugLogger returns the debug hook for --verbose, or nil.
func debugLogger() func(format string, args ...any) {
	if !flagVerbose {
		return nil
	}
	return log.Printf
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Agent catalog YAML file (default from config catalog.path)")
	rootCmd.PersistentFlags().IntVar(&flagMaxSteps, "max-steps", 0, "Step ceiling (default from config compiler.max_steps)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log compiler internals to stderr")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
