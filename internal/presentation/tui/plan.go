package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/neoform/pkg/domain"
)

// RenderPlan describes a validated graph as markdown: the parameters, then
// one table row per task in execution order.
func RenderPlan(title string, cfg *domain.Config, order []string, deps map[string][]string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if names := cfg.ParameterNames(); len(names) > 0 {
		sb.WriteString("## Parameters\n\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "- **%s**: `%s`\n", name, cfg.Parameters[name])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Tasks\n\n")
	sb.WriteString("| # | Task | Kind | Depends on |\n")
	sb.WriteString("|---|------|------|------------|\n")
	for i, name := range order {
		task, ok := cfg.Task(name)
		if !ok {
			return "", fmt.Errorf("task %q is not in the graph", name)
		}
		d := append([]string(nil), deps[name]...)
		sort.Strings(d)
		dependsOn := "-"
		if len(d) > 0 {
			dependsOn = strings.Join(d, ", ")
		}
		fmt.Fprintf(&sb, "| %d | `%s` | %s | %s |\n", i+1, name, domain.TaskKind(task), dependsOn)
	}

	var tools []domain.Tool
	for _, name := range order {
		if task, _ := cfg.Task(name); task != nil {
			if tool, ok := task.(domain.Tool); ok {
				tools = append(tools, tool)
			}
		}
	}
	if len(tools) > 0 {
		sb.WriteString("\n## Tools\n\n")
		for _, tool := range tools {
			args := make([]string, len(tool.Args))
			for i, a := range tool.Args {
				args[i] = fmt.Sprint(a)
			}
			fmt.Fprintf(&sb, "- `%s` runs `%s`\n\n  ```\n  %s\n  ```\n", tool.Name, tool.ToolArtifact, strings.Join(args, " "))
		}
	}
	return sb.String(), nil
}
