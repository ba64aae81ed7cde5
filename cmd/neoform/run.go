package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/aretw0/neoform"
	"github.com/aretw0/neoform/internal/metrics"
	"github.com/aretw0/neoform/pkg/adapters/process"
	"github.com/aretw0/neoform/pkg/adapters/redis"
	"github.com/aretw0/neoform/pkg/daemon"
	"github.com/aretw0/neoform/pkg/domain"
	"github.com/aretw0/neoform/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	flagRedisAddr  string
	flagWorkDir    string
	flagRepository string
)

var runCmd = &cobra.Command{
	Use:   "run <archive.zip> --config daemon.yaml",
	Short: "Execute the tool tasks of a plan on a daemon worker",
	Long: `Compiles the archive and walks its tasks in order. Tool tasks have
their command lines resolved against the work directory (task results) and
a Maven repository (tool jars) and are sent to the daemon worker; other
tasks are reported and skipped. With --redis-addr the plan is locked in Redis so only
one machine runs a given plan at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := loadPlan(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		reg := prometheus.NewRegistry()
		collector, err := metrics.New(reg)
		if err != nil {
			return err
		}
		stopMetrics := serveMetrics(reg)
		defer stopMetrics()

		ropts := []neoform.RunnerOption{
			neoform.WithRunnerLogger(logger),
			neoform.WithTaskHooks(neoform.TaskHooks{
				OnTaskFinish: func(_ context.Context, task domain.Task, err error, _ time.Duration) {
					collector.ObserveTask(domain.TaskKind(task), err)
				},
			}),
		}
		if flagRedisAddr != "" {
			rdb := backend.NewClient(&backend.Options{Addr: flagRedisAddr})
			defer rdb.Close()
			ropts = append(ropts, neoform.WithLocker(redis.NewLocker(rdb, "neoform:")))
		}

		client, err := startWorker(ctx, daemon.WithHooks(collector.DaemonHooks()))
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("worker shutdown", "err", err)
			}
		}()

		out := cmd.OutOrStdout()
		skip := ports.ExecutorFunc(func(_ context.Context, _ *domain.Config, task domain.Task) error {
			fmt.Fprintf(out, "skip %s (%s)\n", task.TaskName(), domain.TaskKind(task))
			return nil
		})
		repo := flagRepository
		if repo == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("no --repository and no home directory: %w", err)
			}
			repo = filepath.Join(home, ".m2", "repository")
		}
		ws := process.NewWorkspace(flagWorkDir, repo)
		exec := process.NewToolExecutor(client, ws.Resolve,
			process.WithFallback(skip),
			process.WithLogger(logger),
		)

		if err := neoform.NewRunner(ropts...).Run(ctx, plan, exec); err != nil {
			return err
		}
		fmt.Fprintf(out, "ran %d tasks\n", len(plan.Order))
		return nil
	},
}

func init() {
	addPlanFlags(runCmd)
	addDaemonFlags(runCmd)
	runCmd.Flags().StringVar(&flagWorkDir, "work-dir", filepath.Join(".neoform", "work"), "Directory holding task results")
	runCmd.Flags().StringVar(&flagRepository, "repository", "", "Maven repository with tool jars (default ~/.m2/repository)")
	runCmd.Flags().StringVar(&flagRedisAddr, "redis-addr", "", "Redis address for the plan lock")
	rootCmd.AddCommand(runCmd)
}
