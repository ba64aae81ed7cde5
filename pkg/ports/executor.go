package ports

import (
	"context"

	"github.com/aretw0/neoform/pkg/domain"
)

// Executor performs the physical work of one task. cfg is the graph the
// task belongs to, for resolving parameter and task inputs.
type Executor interface {
	Execute(ctx context.Context, cfg *domain.Config, task domain.Task) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, cfg *domain.Config, task domain.Task) error

func (f ExecutorFunc) Execute(ctx context.Context, cfg *domain.Config, task domain.Task) error {
	return f(ctx, cfg, task)
}
