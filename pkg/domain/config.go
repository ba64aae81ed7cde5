package domain

import "sort"

// Well-known parameter names registered by the compiler.
const (
	ParamSelfReference          = "selfReference"
	ParamAdditionalLibraries    = "additionalLibraries"
	ParamAccessTransformers     = "accessTransformers"
	ParamInterfaceInjectionData = "interfaceInjectionData"
	ParamParchmentData          = "parchmentData"
)

// Config is a compiled task graph: parameters plus tasks in declaration order.
// It is not modified after the compiler returns it.
type Config struct {
	Parameters map[string]Value
	Tasks      []Task
}

// Task looks up a task by name.
func (c *Config) Task(name string) (Task, bool) {
	for _, t := range c.Tasks {
		if t.TaskName() == name {
			return t, true
		}
	}
	return nil, false
}

// TaskNames returns the task names in declaration order.
func (c *Config) TaskNames() []string {
	names := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		names[i] = t.TaskName()
	}
	return names
}

// ParameterNames returns the registered parameter names, sorted.
func (c *Config) ParameterNames() []string {
	names := make([]string, 0, len(c.Parameters))
	for name := range c.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
