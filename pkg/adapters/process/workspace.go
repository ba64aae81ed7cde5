package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/neoform/pkg/domain"
)

// Workspace lays task results and artifacts out on disk and resolves tool
// arguments against that layout:
//
//	<root>/<task>/<slot>[.<ext>]                   task results
//	<repository>/<group path>/<name>/<version>/... Maven artifacts
//
// A result slot takes an extension only once a tool declared one for it
// through a FileOutputArg.
type Workspace struct {
	root       string
	repository string

	mu      sync.Mutex
	outputs map[domain.Output]string
}

// NewWorkspace creates a Workspace. Directories are created lazily.
func NewWorkspace(root, repository string) *Workspace {
	return &Workspace{
		root:       root,
		repository: repository,
		outputs:    make(map[domain.Output]string),
	}
}

// ArtifactPath returns the file of a in the Maven repository layout.
func (w *Workspace) ArtifactPath(a domain.Artifact) string {
	ext := a.Extension
	if ext == "" {
		ext = "jar"
	}
	file := a.Name + "-" + a.Version
	if a.Classifier != "" {
		file += "-" + a.Classifier
	}
	file += "." + ext

	parts := append([]string{w.repository}, strings.Split(a.Group, ".")...)
	parts = append(parts, a.Name, a.Version, file)
	return filepath.Join(parts...)
}

// OutputPath returns the file holding the result o.
func (w *Workspace) OutputPath(o domain.Output) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.outputs[o]; ok {
		return p
	}
	return filepath.Join(w.root, o.Task, o.Slot)
}

// Resolve is an ArgResolver. Value arguments render strings verbatim and
// artifacts as coordinates; file arguments render paths; output arguments
// reserve the task's result file; classpath arguments join their paths or,
// for list files, write them one per line with the prefix.
func (w *Workspace) Resolve(_ context.Context, cfg *domain.Config, tool domain.Tool, arg domain.Argument) ([]string, error) {
	switch a := arg.(type) {
	case domain.ValueArg:
		return w.values(cfg, a.Input, false)
	case domain.FileArg:
		return w.values(cfg, a.Input, true)
	case domain.FileOutputArg:
		return w.reserve(tool.Name, a)
	case domain.ClasspathArg:
		paths, err := w.values(cfg, a.Input, true)
		if err != nil {
			return nil, err
		}
		if !a.ListFile {
			return []string{strings.Join(paths, string(os.PathListSeparator))}, nil
		}
		file, err := w.writeListFile(tool.Name, a.Prefix, paths)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	}
	return nil, fmt.Errorf("%w: argument %T", domain.ErrUnknownKind, arg)
}

func (w *Workspace) reserve(task string, a domain.FileOutputArg) ([]string, error) {
	name := a.Slot
	if a.Extension != "" {
		name += "." + a.Extension
	}
	dir := filepath.Join(w.root, task)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, name)

	w.mu.Lock()
	w.outputs[domain.Output{Task: task, Slot: a.Slot}] = path
	w.mu.Unlock()
	return []string{path}, nil
}

// values flattens in into strings. With files set, artifacts become
// repository paths; otherwise they render as coordinates.
func (w *Workspace) values(cfg *domain.Config, in domain.Input, files bool) ([]string, error) {
	switch i := in.(type) {
	case domain.DirectInput:
		return w.render(i.Value, files), nil
	case domain.ParameterInput:
		if cfg == nil {
			return nil, fmt.Errorf("%w: parameter %q without a graph", ErrUnresolvedArgument, i.Name)
		}
		v, ok := cfg.Parameters[i.Name]
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q is not set", ErrUnresolvedArgument, i.Name)
		}
		return w.render(v, files), nil
	case domain.TaskInput:
		return []string{w.OutputPath(i.Output)}, nil
	case domain.ListInput:
		var out []string
		for _, item := range i.Inputs {
			vs, err := w.values(cfg, item, files)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: input %T", domain.ErrUnknownKind, in)
}

func (w *Workspace) render(v domain.Value, files bool) []string {
	switch val := v.(type) {
	case domain.Artifact:
		if files {
			return []string{w.ArtifactPath(val)}
		}
		return []string{val.String()}
	case domain.List:
		var out []string
		for _, item := range val {
			out = append(out, w.render(item, files)...)
		}
		return out
	}
	return []string{v.String()}
}

func (w *Workspace) writeListFile(task, prefix string, entries []string) (string, error) {
	dir := filepath.Join(w.root, task)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "classpath-*.txt")
	if err != nil {
		return "", fmt.Errorf("create classpath file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(prefix)
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		return "", fmt.Errorf("write classpath file: %w", err)
	}
	return f.Name(), nil
}
