package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/h1t35h/AssetOpsBench/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "planc version %s\n", version.Full())
	},
}
