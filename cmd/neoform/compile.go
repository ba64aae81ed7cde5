package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/neoform/pkg/domain"
	"github.com/spf13/cobra"
)

var flagJSON bool

var compileCmd = &cobra.Command{
	Use:   "compile <archive.zip>",
	Short: "Compile a NeoForm archive into its task graph",
	Long:  `Compiles the descriptor of the archive for the selected distribution and prints every task with its inputs, in execution order.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}
		logger.Info("compiled", slogAttrsForPlan(plan)...)

		type taskView struct {
			Name   string   `json:"name"`
			Kind   string   `json:"kind"`
			Inputs []string `json:"inputs"`
		}
		views := make([]taskView, 0, len(plan.Order))
		for _, name := range plan.Order {
			task, _ := plan.Config.Task(name)
			inputs, err := domain.TaskInputs(task)
			if err != nil {
				return err
			}
			v := taskView{Name: name, Kind: domain.TaskKind(task), Inputs: make([]string, len(inputs))}
			for i, in := range inputs {
				v.Inputs[i] = in.String()
			}
			views = append(views, v)
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(views)
		}
		for _, v := range views {
			fmt.Fprintf(out, "%s (%s)\n", v.Name, v.Kind)
			for _, in := range v.Inputs {
				fmt.Fprintf(out, "    %s\n", in)
			}
		}
		return nil
	},
}

func init() {
	addPlanFlags(compileCmd)
	compileCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the graph as JSON")
	rootCmd.AddCommand(compileCmd)
}
