package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aretw0/neoform/internal/metrics"
	"github.com/aretw0/neoform/pkg/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagDaemonConfig string
	flagMetricsAddr  string
	flagBatch        string
	flagParallel     int
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Drive a tool daemon worker",
}

var daemonExecCmd = &cobra.Command{
	Use:   "exec --config daemon.yaml [-- args...]",
	Short: "Run argument vectors on a daemon worker",
	Long: `Starts the worker described by the launch configuration and submits
the arguments after "--" as one request. With --batch every non-empty line of
the file is submitted as a separate request, up to --parallel at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var requests [][]string
		if len(args) > 0 {
			requests = append(requests, args)
		}
		if flagBatch != "" {
			batch, err := readBatch(flagBatch)
			if err != nil {
				return err
			}
			requests = append(requests, batch...)
		}
		if len(requests) == 0 {
			return errors.New("nothing to run: pass arguments after -- or use --batch")
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

		client, err := startWorker(ctx, daemon.WithHooks(collector.DaemonHooks()))
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(flagParallel)
		for i, req := range requests {
			i, req := i, req
			g.Go(func() error {
				if err := client.Run(gctx, req); err != nil {
					return fmt.Errorf("request %d (%s): %w", i+1, strings.Join(req, " "), err)
				}
				return nil
			})
		}
		runErr := g.Wait()

		if err := client.Close(); err != nil {
			logger.Warn("worker shutdown", "err", err)
		}
		if runErr != nil {
			return runErr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d requests completed\n", len(requests))
		return nil
	},
}

func startWorker(ctx context.Context, extra ...daemon.Option) (*daemon.Client, error) {
	if flagDaemonConfig == "" {
		return nil, errors.New("--config is required")
	}
	lc, err := daemon.LoadLaunchConfig(flagDaemonConfig)
	if err != nil {
		return nil, err
	}
	opts := append(lc.Options(), daemon.WithLogger(logger))
	opts = append(opts, extra...)
	// The worker must outlive ctx cancellation long enough to be shut down
	// by Close.
	return daemon.Start(context.WithoutCancel(ctx), lc.Command(context.WithoutCancel(ctx)), opts...)
}

// serveMetrics exposes reg on --metrics-addr and returns a function that
// stops the server. Without the flag it does nothing.
func serveMetrics(reg *prometheus.Registry) func() {
	if flagMetricsAddr == "" {
		return func() {}
	}
	srv := &http.Server{
		Addr:              flagMetricsAddr,
		Handler:           metrics.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", flagMetricsAddr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func readBatch(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	defer f.Close()

	var out [][]string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.Fields(line))
	}
	return out, sc.Err()
}

func addDaemonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagDaemonConfig, "config", "", "Worker launch configuration (YAML or JSON)")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func init() {
	addDaemonFlags(daemonExecCmd)
	daemonExecCmd.Flags().StringVar(&flagBatch, "batch", "", "File with one argument vector per line")
	daemonExecCmd.Flags().IntVar(&flagParallel, "parallel", 4, "Maximum requests in flight")
	daemonCmd.AddCommand(daemonExecCmd)
	rootCmd.AddCommand(daemonCmd)
}
