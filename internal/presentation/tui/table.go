package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
)

// ModelTable renders the attributes of m as a markdown table: value, whether
// it is set and whether it differs from the default branch.
func ModelTable(m *model.Model) string {
	changed := make(map[string]bool)
	for _, name := range m.Changes(domain.DefaultBranch) {
		changed[name] = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", m.Definition().Name)
	sb.WriteString("| attribute | value | set | changed |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range m.Names() {
		value, _ := m.Get(name)
		set := "-"
		if isSet, err := m.IsSet(name); err == nil {
			set = yesNo(isSet)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", name, FormatValue(value), set, yesNo(changed[name]))
	}
	return sb.String()
}

// FormatValue renders a value for one table cell.
func FormatValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return "_null_"
	case string:
		return escapeCell(fmt.Sprintf("%q", typed))
	case *model.Model:
		out, err := json.Marshal(typed)
		if err != nil {
			return typed.Definition().Name
		}
		return escapeCell(string(out))
	default:
		out, err := json.Marshal(typed)
		if err != nil {
			return escapeCell(fmt.Sprint(typed))
		}
		return escapeCell(string(out))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
