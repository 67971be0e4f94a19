package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/catalog"
	"github.com/h1t35h/AssetOpsBench/internal/prompt"
)

var catalogForce bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the agent catalog",
	Long: `Print the agent catalog planc resolves agent references against, as
the model sees it in the planning prompt.

The catalog is read from --catalog or catalog.path; when the default file does
not exist the built-in AssetOpsBench catalog is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt.DescribeAgents(cat))
		return nil
	},
}

var catalogInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write the built-in catalog to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogPath()
		if len(args) == 1 {
			path = args[0]
		}

		exists, err := afero.Exists(osFs, path)
		if err != nil {
			return err
		}
		if exists && !catalogForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		data, err := catalog.Marshal(catalog.Default())
		if err != nil {
			return err
		}
		if err := afero.WriteFile(osFs, path, data, 0644); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		printStatus("✓", "wrote "+path, okColor)
		return nil
	},
}

func init() {
	catalogInitCmd.Flags().BoolVar(&catalogForce, "force", false, "Overwrite an existing file")
	catalogCmd.AddCommand(catalogInitCmd)
}
