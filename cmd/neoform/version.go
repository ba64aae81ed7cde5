package main

import (
	"fmt"

	"github.com/aretw0/neoform"
	"github.com/aretw0/neoform/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of neoform",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if tui.IsTerminal(out) {
			tui.PrintBanner(out)
		}
		fmt.Fprintf(out, "neoform version %s\n", neoform.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
