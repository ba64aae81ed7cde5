package validator

import (
	"container/heap"
	"strings"

	"github.com/aretw0/neoform/pkg/domain"
)

// Option configures validation.
type Option func(*options)

type options struct {
	strictParameters bool
}

// WithStrictParameters rejects parameter references that are not present
// in Config.Parameters. By default they are left to the executor.
func WithStrictParameters() Option {
	return func(o *options) {
		o.strictParameters = true
	}
}

// Validate checks the task graph and returns the task names in execution
// order: every task appears after all tasks whose outputs it consumes.
// Ties are broken by declaration order, so the result is deterministic.
func Validate(cfg *domain.Config, opts ...Option) ([]string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	g, err := buildGraph(cfg, o)
	if err != nil {
		return nil, err
	}
	if cycle := g.findCycle(); cycle != nil {
		return nil, domain.Errorf(domain.ErrCyclicDependency, cycle[0], "%s", strings.Join(cycle, " -> "))
	}
	return g.order()
}

// Dependencies returns, for every task, the names of the tasks it consumes
// outputs from, without duplicates, in first-reference order.
func Dependencies(cfg *domain.Config) (map[string][]string, error) {
	g, err := buildGraph(cfg, options{})
	if err != nil {
		return nil, err
	}
	deps := make(map[string][]string, len(g.names))
	for i, name := range g.names {
		list := make([]string, 0, len(g.deps[i]))
		for _, d := range g.deps[i] {
			list = append(list, g.names[d])
		}
		deps[name] = list
	}
	return deps, nil
}

// graph is the reference graph indexed by declaration order.
type graph struct {
	names      []string
	deps       [][]int // consumer -> producers
	dependents [][]int // producer -> consumers
}

func buildGraph(cfg *domain.Config, o options) (*graph, error) {
	index := make(map[string]int, len(cfg.Tasks))
	slots := make([]map[string]bool, len(cfg.Tasks))
	g := &graph{
		names:      make([]string, len(cfg.Tasks)),
		deps:       make([][]int, len(cfg.Tasks)),
		dependents: make([][]int, len(cfg.Tasks)),
	}

	for i, t := range cfg.Tasks {
		name := t.TaskName()
		if _, dup := index[name]; dup {
			return nil, domain.Errorf(domain.ErrDuplicateTask, name, "declared more than once")
		}
		index[name] = i
		g.names[i] = name

		produced, err := domain.TaskSlots(t)
		if err != nil {
			return nil, err
		}
		slots[i] = make(map[string]bool, len(produced))
		for _, s := range produced {
			slots[i][s] = true
		}
	}

	for i, t := range cfg.Tasks {
		refs, err := domain.TaskReferences(t)
		if err != nil {
			return nil, err
		}
		seen := make(map[int]bool)
		for _, ref := range refs {
			p, ok := index[ref.Task]
			if !ok {
				return nil, domain.Errorf(domain.ErrUnresolvedReference, g.names[i], "references missing task %q", ref.Task)
			}
			if !slots[p][ref.Slot] {
				return nil, domain.Errorf(domain.ErrUnresolvedReference, g.names[i], "task %q has no result %q", ref.Task, ref.Slot)
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			g.deps[i] = append(g.deps[i], p)
			g.dependents[p] = append(g.dependents[p], i)
		}

		if o.strictParameters {
			params, err := domain.ParameterReferences(t)
			if err != nil {
				return nil, err
			}
			for _, name := range params {
				if _, ok := cfg.Parameters[name]; !ok {
					return nil, domain.Errorf(domain.ErrUnknownParameter, g.names[i], "parameter %q is not defined", name)
				}
			}
		}
	}
	return g, nil
}

// findCycle runs a depth-first search with an on-stack marker and returns
// the first cycle found as a closed path of task names, or nil.
func (g *graph) findCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(g.names))
	var stack []int
	var cycle []string

	var visit func(n int) bool
	visit = func(n int) bool {
		state[n] = onStack
		stack = append(stack, n)
		for _, d := range g.deps[n] {
			switch state[d] {
			case onStack:
				start := 0
				for i, s := range stack {
					if s == d {
						start = i
						break
					}
				}
				for _, s := range stack[start:] {
					cycle = append(cycle, g.names[s])
				}
				cycle = append(cycle, g.names[d])
				return true
			case unvisited:
				if visit(d) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return false
	}

	for n := range g.names {
		if state[n] == unvisited && visit(n) {
			return cycle
		}
	}
	return nil
}

// order is Kahn's algorithm with a min-heap of declaration indices as the
// ready set.
func (g *graph) order() ([]string, error) {
	indeg := make([]int, len(g.names))
	ready := &indexHeap{}
	for n := range g.names {
		indeg[n] = len(g.deps[n])
		if indeg[n] == 0 {
			heap.Push(ready, n)
		}
	}

	out := make([]string, 0, len(g.names))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, g.names[n])
		for _, c := range g.dependents[n] {
			indeg[c]--
			if indeg[c] == 0 {
				heap.Push(ready, c)
			}
		}
	}
	if len(out) != len(g.names) {
		return nil, domain.Errorf(domain.ErrCyclicDependency, "", "ordered %d of %d tasks", len(out), len(g.names))
	}
	return out, nil
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
