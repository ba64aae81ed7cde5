package neoform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/neoform/internal/logging"
	"github.com/aretw0/neoform/pkg/adapters/memory"
	"github.com/aretw0/neoform/pkg/domain"
	"github.com/aretw0/neoform/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed runner keeps a plan locked.
const DefaultLockTTL = 30 * time.Minute

// TaskHooks observe plan execution.
type TaskHooks struct {
	OnTaskStart  func(ctx context.Context, task domain.Task)
	OnTaskFinish func(ctx context.Context, task domain.Task, err error, elapsed time.Duration)
}

// TaskError reports the task a run stopped at.
type TaskError struct {
	Task string
	Kind string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q (%s) failed: %v", e.Task, e.Kind, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Runner executes plans task by task in dependency order.
type Runner struct {
	locker  ports.Locker
	hooks   TaskHooks
	logger  *slog.Logger
	lockTTL time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLocker replaces the default in-process locker, for example with a
// Redis locker shared by several machines.
func WithLocker(l ports.Locker) RunnerOption {
	return func(r *Runner) {
		r.locker = l
	}
}

// WithTaskHooks registers execution hooks.
func WithTaskHooks(h TaskHooks) RunnerOption {
	return func(r *Runner) {
		r.hooks = h
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		r.lockTTL = ttl
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(r)
	}
	if r.locker == nil {
		r.locker = memory.NewLocker()
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Run executes every task of plan through exec, holding the plan's lock
// for the whole run. It stops at the first failing task.
func (r *Runner) Run(ctx context.Context, plan *Plan, exec ports.Executor) error {
	unlock, err := r.locker.Lock(ctx, plan.Key(), r.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to lock plan: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to release plan lock", "key", plan.Key(), "err", err)
		}
	}()

	logger := r.logger.With("dist", plan.Dist)
	for _, name := range plan.Order {
		if err := ctx.Err(); err != nil {
			return err
		}
		task, ok := plan.Config.Task(name)
		if !ok {
			return domain.Errorf(domain.ErrUnresolvedReference, name, "task is in the order but not in the graph")
		}
		kind := domain.TaskKind(task)

		if r.hooks.OnTaskStart != nil {
			r.hooks.OnTaskStart(ctx, task)
		}
		start := time.Now()
		err := exec.Execute(ctx, plan.Config, task)
		elapsed := time.Since(start)
		if r.hooks.OnTaskFinish != nil {
			r.hooks.OnTaskFinish(ctx, task, err, elapsed)
		}

		if err != nil {
			logger.Error("task failed", "task", name, "kind", kind, "err", err)
			return &TaskError{Task: name, Kind: kind, Err: err}
		}
		logger.Debug("task done", "task", name, "kind", kind, "elapsed", elapsed)
	}
	return nil
}
