package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
)

// GraphOverlay contains dynamic model state to visualize on the graph.
type GraphOverlay struct {
	Changed []string
	Focus   string
}

// OverlayFor builds an overlay of the attributes of m that differ from the
// default branch.
func OverlayFor(m *model.Model) *GraphOverlay {
	return &GraphOverlay{Changed: m.Changes(domain.DefaultBranch)}
}

// GenerateMermaid produces a Mermaid flowchart of a definition's dependency
// graph. Edges point from an attribute to the derivations reading it.
// It applies semantic styling:
// - Id: ((Circle))
// - Derived: [[Subroutine]]
// - Nested: [/Parallelogram/]
// - Default: [Rectangle]
// It also applies overlay styles (Changed/Focus) if provided.
func GenerateMermaid(def *model.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, spec := range def.Attributes {
		safeID := sanitizeMermaidID(spec.Name)

		opener, closer := "[", "]"
		switch {
		case spec.Name == domain.IDAttribute && def.Persistent:
			opener, closer = "((", "))"
		case spec.Kind.IsDerived():
			opener, closer = "[[", "]]"
		case spec.Kind.Nested != nil:
			opener, closer = "[/", "/]"
		}

		label := spec.Name
		if spec.Kind.Name != "" && spec.Kind.Name != spec.Name {
			label = fmt.Sprintf("%s <br/> %s", spec.Name, spec.Kind.Name)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))
	}

	for _, spec := range def.Attributes {
		for _, dep := range spec.Kind.DependsOn {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(dep), sanitizeMermaidID(spec.Name)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Changed {
			safeID := sanitizeMermaidID(name)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s changed;\n", safeID))
			}
		}

		if overlay.Focus != "" {
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", sanitizeMermaidID(overlay.Focus)))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
