package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify planc configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/planc/config.yaml
Project-specific overrides can be placed in .planc.yaml
Environment variables PLANC_<SECTION>_<KEY> override both.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			for _, key := range config.Keys {
				value, _ := cfg.Get(key)
				fmt.Fprintf(out, "%s: %s\n", key, value)
			}
			if path := config.GetProjectConfigPath(); path != "" {
				fmt.Fprintf(out, "# project overrides: %s\n", path)
			}
			fmt.Fprintf(out, "# api key source: %s\n", config.GetAPIKeySource(cfg))
			return nil
		case 1:
			value, ok := cfg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown configuration key: %s", args[0])
			}
			fmt.Fprintln(out, value)
			return nil
		default:
			if args[0] == "anthropic.api_key" {
				if err := config.ValidateAPIKey(args[1]); err != nil {
					return err
				}
			}
			if err := config.SetValue(config.GetUserConfigPath(), args[0], args[1]); err != nil {
				return err
			}
			shown := args[1]
			if args[0] == "anthropic.api_key" {
				shown = config.MaskAPIKey(shown)
			}
			printStatus("✓", fmt.Sprintf("Set %s = %s", args[0], shown), okColor)
			return nil
		}
	},
}
