package main

import (
	"fmt"

	"github.com/aretw0/neoform/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <archive.zip>",
	Short: "Export the task graph visualization",
	Long:  `Compiles the archive and outputs a Mermaid diagram (graph TD) of the tasks and the outputs they consume.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		output, err := graph.GenerateMermaid(plan.Config, plan.Order, nil)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	addPlanFlags(graphCmd)
	rootCmd.AddCommand(graphCmd)
}
