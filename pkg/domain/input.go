package domain

import (
	"fmt"
	"strings"
)

// SlotOutput is the name of the primary result slot every task produces.
const SlotOutput = "output"

// Output names a result slot produced by a task.
type Output struct {
	Task string
	Slot string
}

// OutputOf references the primary slot of the named task.
func OutputOf(task string) Output {
	return Output{Task: task, Slot: SlotOutput}
}

func (o Output) String() string {
	return o.Task + "." + o.Slot
}

// Input describes where a task's data comes from.
// Implementations: DirectInput, ParameterInput, TaskInput, ListInput.
type Input interface {
	fmt.Stringer
	isInput()
}

// DirectInput carries a literal value.
type DirectInput struct {
	Value Value
}

// ParameterInput is resolved against Config.Parameters by the executor.
type ParameterInput struct {
	Name string
}

// TaskInput consumes a slot produced by another task.
type TaskInput struct {
	Output Output
}

// ListInput is an ordered sequence of inputs.
type ListInput struct {
	Inputs []Input
}

func (DirectInput) isInput()    {}
func (ParameterInput) isInput() {}
func (TaskInput) isInput()      {}
func (ListInput) isInput()      {}

func (i DirectInput) String() string    { return fmt.Sprintf("%q", i.Value.String()) }
func (i ParameterInput) String() string { return "$" + i.Name }
func (i TaskInput) String() string      { return "@" + i.Output.String() }

func (i ListInput) String() string {
	parts := make([]string, len(i.Inputs))
	for n, in := range i.Inputs {
		parts[n] = in.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Direct wraps a plain string as a DirectInput.
func Direct(s string) DirectInput {
	return DirectInput{Value: String(s)}
}

// FromTask references the primary output of the named task.
func FromTask(task string) TaskInput {
	return TaskInput{Output: OutputOf(task)}
}

// walkInput visits every leaf input, descending into lists.
func walkInput(in Input, visit func(Input)) {
	if in == nil {
		return
	}
	if list, ok := in.(ListInput); ok {
		for _, child := range list.Inputs {
			walkInput(child, visit)
		}
		return
	}
	visit(in)
}
