package main

import (
	"fmt"

	"github.com/aretw0/neoform/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <archive.zip>",
	Short: "Describe the execution plan",
	Long:  `Prints the parameters, the tasks in execution order and the tool invocations of the archive, rendered as markdown on a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		deps, err := plan.Dependencies()
		if err != nil {
			return err
		}
		md, err := tui.RenderPlan(fmt.Sprintf("%s (%s)", args[0], plan.Dist), plan.Config, plan.Order, deps)
		if err != nil {
			return err
		}
		return tui.Render(cmd.OutOrStdout(), md)
	},
}

func init() {
	addPlanFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}
