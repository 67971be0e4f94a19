package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/prompt"
)

var (
	promptStatement     string
	promptStatementFile string
)

var promptCmd = &cobra.Command{
	Use:   "prompt --statement TEXT",
	Short: "Print the planning prompt for a problem statement",
	Long: `Print the prompt planc sends to the model: the agent catalog, the plan
markup rules, the step ceiling and the problem statement.

Useful for running the planner by hand and feeding its answer to compile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		statement, err := readStatement(promptStatement, promptStatementFile)
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
		fmt.Fprintln(cmd.OutOrStdout(), prompt.BuildPlanPrompt(statement, cat, maxSteps()))
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVarP(&promptStatement, "statement", "s", "", "Problem statement")
	promptCmd.Flags().StringVar(&promptStatementFile, "statement-file", "", "File holding the problem statement")
}
