package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/neoform"
	"github.com/aretw0/neoform/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "neoform",
	Short:         "neoform compiles and runs NeoForm toolchain descriptors",
	Long:          `neoform turns a NeoForm archive into a validated task graph and drives the tool daemon that executes it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(flagLogLevel)
		if err != nil {
			return err
		}
		logger = logging.New(level)
		return nil
	},
}

var (
	flagLogLevel string
	flagDist     string
	flagStrict   bool
	flagATs      []string
	flagIIs      []string
	flagParch    string

	logger = logging.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagDist, "dist", "client", "Distribution to compile (client, server, joined)")
}

// addPlanFlags registers the flags shared by the commands that compile an
// archive.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagStrict, "strict", false, "Fail on parameters the graph does not define")
	cmd.Flags().StringSliceVar(&flagATs, "access-transformer", nil, "Access transformer file (repeatable)")
	cmd.Flags().StringSliceVar(&flagIIs, "interface-injection", nil, "Interface injection data file (repeatable)")
	cmd.Flags().StringVar(&flagParch, "parchment", "", "Parchment mappings archive")
}

func loadPlan(path string) (*neoform.Plan, error) {
	opts := []neoform.Option{neoform.WithLogger(logger)}
	if flagStrict {
		opts = append(opts, neoform.WithStrictParameters())
	}
	if len(flagATs) > 0 {
		opts = append(opts, neoform.WithAccessTransformers(flagATs...))
	}
	if len(flagIIs) > 0 {
		opts = append(opts, neoform.WithInterfaceInjectionData(flagIIs...))
	}
	if flagParch != "" {
		opts = append(opts, neoform.WithParchmentData(flagParch))
	}
	return neoform.New(opts...).PlanFile(path, flagDist)
}

func slogAttrsForPlan(p *neoform.Plan) []any {
	return []any{slog.String("dist", p.Dist), slog.Int("tasks", len(p.Order)), slog.String("key", p.Key())}
}
