package main

import (
	"fmt"

	"github.com/aretw0/neoform/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <archive.zip>",
	Short: "Check the task graph for consistency",
	Long:  `Compiles the archive and reports duplicate tasks, dangling references and dependency cycles.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		plan, err := loadPlan(args[0])
		if err != nil {
			fmt.Fprintln(out, tui.Status(out, false, "Validation failed"))
			return err
		}
		fmt.Fprintln(out, tui.Status(out, true, fmt.Sprintf("Graph is valid: %d tasks for %s", len(plan.Order), plan.Dist)))
		return nil
	},
}

func init() {
	addPlanFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
