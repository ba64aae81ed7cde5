package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/neoform/internal/logging"
	"github.com/aretw0/neoform/pkg/domain"
	"github.com/aretw0/neoform/pkg/ports"
)

var (
	// ErrUnsupportedTask is returned for task kinds the executor does not
	// run and no fallback was configured for.
	ErrUnsupportedTask = errors.New("unsupported task kind")
	// ErrUnresolvedArgument is returned by resolvers for arguments they
	// cannot render: files and task outputs for LiteralResolver, unset
	// parameters for Workspace.
	ErrUnresolvedArgument = errors.New("argument cannot be resolved")
)

// Submitter runs one argument vector on a worker. *daemon.Client
// satisfies it.
type Submitter interface {
	Run(ctx context.Context, args []string) error
}

// ArgResolver turns one tool argument into the strings sent to the worker.
type ArgResolver func(ctx context.Context, cfg *domain.Config, tool domain.Tool, arg domain.Argument) ([]string, error)

// ToolExecutor is a ports.Executor that ships Tool tasks to a daemon
// worker and delegates every other kind to a fallback executor.
type ToolExecutor struct {
	worker   Submitter
	resolve  ArgResolver
	fallback ports.Executor
	logger   *slog.Logger
}

// ExecutorOption configures a ToolExecutor.
type ExecutorOption func(*ToolExecutor)

// WithFallback sets the executor for non-tool tasks.
func WithFallback(e ports.Executor) ExecutorOption {
	return func(t *ToolExecutor) {
		t.fallback = e
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(t *ToolExecutor) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewToolExecutor creates a ToolExecutor. A nil resolve uses
// LiteralResolver.
func NewToolExecutor(worker Submitter, resolve ArgResolver, opts ...ExecutorOption) *ToolExecutor {
	if resolve == nil {
		resolve = LiteralResolver
	}
	t := &ToolExecutor{
		worker:  worker,
		resolve: resolve,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Execute implements ports.Executor.
func (t *ToolExecutor) Execute(ctx context.Context, cfg *domain.Config, task domain.Task) error {
	tool, ok := task.(domain.Tool)
	if !ok {
		if t.fallback == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedTask, domain.TaskKind(task))
		}
		return t.fallback.Execute(ctx, cfg, task)
	}

	args, err := t.commandLine(ctx, cfg, tool)
	if err != nil {
		return err
	}
	t.logger.Debug("running tool", "task", tool.Name, "tool", tool.ToolArtifact.String(), "args", len(args))
	return t.worker.Run(ctx, args)
}

func (t *ToolExecutor) commandLine(ctx context.Context, cfg *domain.Config, tool domain.Tool) ([]string, error) {
	var out []string
	for i, arg := range tool.Args {
		parts, err := t.resolve(ctx, cfg, tool, arg)
		if err != nil {
			return nil, fmt.Errorf("task %q argument %d (%s): %w", tool.Name, i, arg, err)
		}
		out = append(out, parts...)
	}
	return out, nil
}

// LiteralResolver resolves value arguments whose input is a direct string
// and rejects everything else.
func LiteralResolver(_ context.Context, _ *domain.Config, _ domain.Tool, arg domain.Argument) ([]string, error) {
	if v, ok := arg.(domain.ValueArg); ok {
		if d, ok := v.Input.(domain.DirectInput); ok {
			if s, ok := d.Value.(domain.String); ok {
				return []string{string(s)}, nil
			}
		}
	}
	return nil, ErrUnresolvedArgument
}
