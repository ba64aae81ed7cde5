package domain

import "fmt"

// Additional result slots produced by some task kinds.
const (
	SlotResources = "resources"
	SlotStubs     = "stubs"
)

// Task is a named unit of graph-level work. The set of implementations is
// closed; every consumer switches over all of them.
type Task interface {
	TaskName() string
	isTask()
}

// RetrieveData extracts a file from the descriptor archive.
type RetrieveData struct {
	Name    string
	Archive Input
	Path    Input
}

// DownloadManifest fetches the launcher version manifest.
type DownloadManifest struct {
	Name string
}

// DownloadJSON fetches the version metadata document for a game version.
type DownloadJSON struct {
	Name     string
	Manifest Input
	Version  Input
}

// DownloadDistribution fetches the client or server jar.
type DownloadDistribution struct {
	Name         string
	Distribution string
	VersionJSON  Input
}

// DownloadMappings fetches the obfuscation mappings of a distribution.
type DownloadMappings struct {
	Name         string
	Distribution string
	VersionJSON  Input
}

// SplitClassesResources separates class files from resources in a jar.
type SplitClassesResources struct {
	Name  string
	Input Input
}

// ListClasspath produces the library classpath of the game version.
type ListClasspath struct {
	Name                string
	VersionJSON         Input
	AdditionalLibraries Input
}

// InjectSources adds the injection payload to a source archive.
type InjectSources struct {
	Name      string
	Input     Input
	Injection Input
}

// PatchSources applies the descriptor's source patches.
type PatchSources struct {
	Name    string
	Input   Input
	Patches Input
}

// Tool runs an external jar with a templated command line.
type Tool struct {
	Name         string
	StepType     string
	ToolArtifact Artifact
	Repository   string
	Args         []Argument
}

// TransformSources runs the source transformer over the patched sources.
// The optional inputs are nil unless the caller asked for them.
type TransformSources struct {
	Name               string
	Input              Input
	Libraries          Input
	AccessTransformers Input
	InterfaceInjection Input
	ParchmentData      Input
}

// Compile recompiles the transformed sources.
type Compile struct {
	Name      string
	Args      []Argument
	Sources   Input
	Stubs     []Input
	Classpath Input
}

func (t RetrieveData) TaskName() string          { return t.Name }
func (t DownloadManifest) TaskName() string      { return t.Name }
func (t DownloadJSON) TaskName() string          { return t.Name }
func (t DownloadDistribution) TaskName() string  { return t.Name }
func (t DownloadMappings) TaskName() string      { return t.Name }
func (t SplitClassesResources) TaskName() string { return t.Name }
func (t ListClasspath) TaskName() string         { return t.Name }
func (t InjectSources) TaskName() string         { return t.Name }
func (t PatchSources) TaskName() string          { return t.Name }
func (t Tool) TaskName() string                  { return t.Name }
func (t TransformSources) TaskName() string      { return t.Name }
func (t Compile) TaskName() string               { return t.Name }

func (RetrieveData) isTask()          {}
func (DownloadManifest) isTask()      {}
func (DownloadJSON) isTask()          {}
func (DownloadDistribution) isTask()  {}
func (DownloadMappings) isTask()      {}
func (SplitClassesResources) isTask() {}
func (ListClasspath) isTask()         {}
func (InjectSources) isTask()         {}
func (PatchSources) isTask()          {}
func (Tool) isTask()                  {}
func (TransformSources) isTask()      {}
func (Compile) isTask()               {}

// AllTaskKinds returns a zero value of every task variant.
func AllTaskKinds() []Task {
	return []Task{
		RetrieveData{},
		DownloadManifest{},
		DownloadJSON{},
		DownloadDistribution{},
		DownloadMappings{},
		SplitClassesResources{},
		ListClasspath{},
		InjectSources{},
		PatchSources{},
		Tool{},
		TransformSources{},
		Compile{},
	}
}

// TaskKind returns a stable label for the variant of t.
func TaskKind(t Task) string {
	switch t.(type) {
	case RetrieveData:
		return "retrieveData"
	case DownloadManifest:
		return "downloadManifest"
	case DownloadJSON:
		return "downloadJson"
	case DownloadDistribution:
		return "downloadDistribution"
	case DownloadMappings:
		return "downloadMappings"
	case SplitClassesResources:
		return "splitClassesResources"
	case ListClasspath:
		return "listClasspath"
	case InjectSources:
		return "injectSources"
	case PatchSources:
		return "patchSources"
	case Tool:
		return "tool"
	case TransformSources:
		return "transformSources"
	case Compile:
		return "compile"
	}
	return fmt.Sprintf("%T", t)
}

// TaskInputs returns every input field of t, in declaration order.
// Nil optional inputs are skipped.
func TaskInputs(t Task) ([]Input, error) {
	var ins []Input
	add := func(in ...Input) {
		for _, i := range in {
			if i != nil {
				ins = append(ins, i)
			}
		}
	}
	addArgs := func(args []Argument) error {
		for _, a := range args {
			in, err := argumentInput(a)
			if err != nil {
				return err
			}
			add(in)
		}
		return nil
	}

	switch task := t.(type) {
	case RetrieveData:
		add(task.Archive, task.Path)
	case DownloadManifest:
	case DownloadJSON:
		add(task.Manifest, task.Version)
	case DownloadDistribution:
		add(task.VersionJSON)
	case DownloadMappings:
		add(task.VersionJSON)
	case SplitClassesResources:
		add(task.Input)
	case ListClasspath:
		add(task.VersionJSON, task.AdditionalLibraries)
	case InjectSources:
		add(task.Input, task.Injection)
	case PatchSources:
		add(task.Input, task.Patches)
	case Tool:
		if err := addArgs(task.Args); err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}
	case TransformSources:
		add(task.Input, task.Libraries, task.AccessTransformers, task.InterfaceInjection, task.ParchmentData)
	case Compile:
		if err := addArgs(task.Args); err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}
		add(task.Sources)
		add(task.Stubs...)
		add(task.Classpath)
	default:
		return nil, fmt.Errorf("%w: task %T", ErrUnknownKind, t)
	}
	return ins, nil
}

// TaskReferences returns every output of another task that t consumes,
// including references nested inside list inputs and arguments.
func TaskReferences(t Task) ([]Output, error) {
	ins, err := TaskInputs(t)
	if err != nil {
		return nil, err
	}
	var refs []Output
	for _, in := range ins {
		walkInput(in, func(leaf Input) {
			if ti, ok := leaf.(TaskInput); ok {
				refs = append(refs, ti.Output)
			}
		})
	}
	return refs, nil
}

// ParameterReferences returns the names of every parameter t consumes.
func ParameterReferences(t Task) ([]string, error) {
	ins, err := TaskInputs(t)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, in := range ins {
		walkInput(in, func(leaf Input) {
			if p, ok := leaf.(ParameterInput); ok {
				names = append(names, p.Name)
			}
		})
	}
	return names, nil
}

// TaskSlots returns the result slots t produces.
func TaskSlots(t Task) ([]string, error) {
	switch task := t.(type) {
	case RetrieveData, DownloadManifest, DownloadJSON, DownloadDistribution,
		DownloadMappings, ListClasspath, InjectSources, PatchSources, Compile:
		return []string{SlotOutput}, nil
	case SplitClassesResources:
		return []string{SlotOutput, SlotResources}, nil
	case TransformSources:
		return []string{SlotOutput, SlotStubs}, nil
	case Tool:
		var slots []string
		for _, a := range task.Args {
			if out, ok := a.(FileOutputArg); ok {
				slots = append(slots, out.Slot)
			}
		}
		return slots, nil
	}
	return nil, fmt.Errorf("%w: task %T", ErrUnknownKind, t)
}
