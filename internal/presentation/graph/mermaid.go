package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/neoform/pkg/domain"
)

// GraphOverlay contains execution state to visualize on the graph.
type GraphOverlay struct {
	Completed []string
	Failed    string
}

// GenerateMermaid produces a Mermaid flowchart of the task graph, one node
// per task in the given order and one edge per consumed output.
// Shapes follow the task kind:
// - Data retrieval: [(Cylinder)]
// - Downloads: [/Parallelogram/]
// - Tool: [[Subroutine]]
// - Source transformation and compilation: {{Hexagon}}
// - Default: [Rectangle]
// Edges from a slot other than the primary output are labelled with it.
func GenerateMermaid(cfg *domain.Config, order []string, overlay *GraphOverlay) (string, error) {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range order {
		task, ok := cfg.Task(name)
		if !ok {
			return "", fmt.Errorf("task %q is not in the graph", name)
		}
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch task.(type) {
		case domain.RetrieveData:
			opener, closer = "[(", ")]"
		case domain.DownloadManifest, domain.DownloadJSON, domain.DownloadDistribution, domain.DownloadMappings:
			opener, closer = "[/", "/]"
		case domain.Tool:
			opener, closer = "[[", "]]"
		case domain.TransformSources, domain.Compile:
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, name, domain.TaskKind(task), closer)

		refs, err := domain.TaskReferences(task)
		if err != nil {
			return "", err
		}
		seen := make(map[domain.Output]bool)
		for _, ref := range refs {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			from := sanitizeMermaidID(ref.Task)
			if ref.Slot == domain.SlotOutput {
				fmt.Fprintf(&sb, "    %s --> %s\n", from, safeID)
			} else {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, ref.Slot, safeID)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef completed fill:#e8f5e9,stroke:#1b5e20,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		done := make(map[string]bool)
		for _, name := range overlay.Completed {
			safeID := sanitizeMermaidID(name)
			if !done[safeID] && safeID != "" {
				done[safeID] = true
				fmt.Fprintf(&sb, "    class %s completed;\n", safeID)
			}
		}
		if overlay.Failed != "" {
			fmt.Fprintf(&sb, "    class %s failed;\n", sanitizeMermaidID(overlay.Failed))
		}
	}

	return sb.String(), nil
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
