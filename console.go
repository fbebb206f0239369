package facet

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/facet/internal/presentation/tui"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/model"
	"gopkg.in/yaml.v3"
)

// Console is a line-oriented command loop over one model.
// This allows for easy testing and integration with different frontends.
type Console struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

const consoleHelp = `commands:
  get [name]               show one attribute, or the whole model
  set <name> <value>       set a value (YAML syntax: 3, true, [a, b], {k: v})
  unset <name>             restore the default
  commit [branch]          snapshot the model
  revert [branch]          restore a snapshot
  changes [branch]         list attributes that differ from a snapshot
  previous <name>          value before the last change
  json                     print the model as JSON
  validate                 run validators
  save                     persist the model
  quit                     leave the console`

// Run reads commands until quit or end of input. Command failures are
// printed and the loop continues; only I/O errors are returned.
func (c *Console) Run(ctx context.Context, m *model.Model) error {
	if c.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if c.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(c.Input)

	if !c.Headless {
		fmt.Fprintf(c.Output, "--- facet console: %s (type 'help') ---\n", m.Definition().Name)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.Headless {
			fmt.Fprint(c.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		line, err := SanitizeLine(text)
		if err != nil {
			fmt.Fprintf(c.Output, "error: %v\n", err)
			line = ""
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			if fields[0] == "quit" || fields[0] == "exit" {
				if !c.Headless {
					fmt.Fprintln(c.Output, "Bye!")
				}
				return nil
			}
			if err := c.execute(ctx, m, fields[0], fields[1:]); err != nil {
				fmt.Fprintf(c.Output, "error: %v\n", err)
			}
		}
		if eof {
			return nil
		}
	}
}

func (c *Console) execute(ctx context.Context, m *model.Model, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(c.Output, consoleHelp)
	case "get":
		if len(args) == 0 {
			c.print(tui.ModelTable(m))
			return nil
		}
		v, err := m.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.Output, tui.FormatValue(v))
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <name> <value>")
		}
		value, err := ParseValue(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if err := m.Set(args[0], value); err != nil {
			return err
		}
		return m.Ready(ctx)
	case "unset":
		if len(args) != 1 {
			return fmt.Errorf("usage: unset <name>")
		}
		if err := m.Unset(args[0]); err != nil {
			return err
		}
		return m.Ready(ctx)
	case "commit":
		if m.Commit(branchArg(args)) {
			fmt.Fprintln(c.Output, "committed")
		} else {
			fmt.Fprintln(c.Output, "nothing to commit")
		}
	case "revert":
		if m.Revert(branchArg(args)) {
			fmt.Fprintln(c.Output, "reverted")
		} else {
			fmt.Fprintln(c.Output, "nothing to revert")
		}
		return m.Ready(ctx)
	case "changes":
		changes := m.Changes(branchArg(args))
		if len(changes) == 0 {
			fmt.Fprintln(c.Output, "no changes")
			return nil
		}
		fmt.Fprintln(c.Output, strings.Join(changes, "\n"))
	case "previous":
		if len(args) != 1 {
			return fmt.Errorf("usage: previous <name>")
		}
		v, err := m.Previous(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.Output, tui.FormatValue(v))
	case "json":
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.Output, string(out))
	case "validate":
		err := m.Validate(ctx)
		var verrs *domain.ValidationErrors
		switch {
		case err == nil:
			fmt.Fprintln(c.Output, "valid")
		case errors.As(err, &verrs):
			for _, e := range verrs.Errors {
				fmt.Fprintf(c.Output, "- %v\n", e)
			}
		default:
			return err
		}
	case "save":
		if err := m.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.Output, "saved %s\n", m.ID())
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
	return nil
}

func (c *Console) print(markdown string) {
	output := markdown
	if c.Renderer != nil {
		if rendered, err := c.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(c.Output, strings.TrimSpace(output))
}

func branchArg(args []string) string {
	if len(args) == 0 {
		return domain.DefaultBranch
	}
	return args[0]
}

// ParseValue reads a command-line value as a YAML scalar, sequence or
// mapping. Unparseable input is kept as the raw string.
func ParseValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw, nil
	}
	return normalize(v), nil
}

// normalize turns the map[string]any yaml.v3 produces for nested mappings
// into JSON-compatible values.
func normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for k, item := range typed {
			typed[k] = normalize(item)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range typed {
			typed[i] = normalize(item)
		}
		return typed
	default:
		return v
	}
}
