package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <schema>",
	Short: "Export the dependency graph of a model",
	Long: `Outputs a Mermaid diagram (graph TD) of the attributes of --model and the
derivations reading them. With --set, attributes that differ from their
defaults are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		focus, _ := cmd.Flags().GetString("focus")

		opts := options(args[0])
		opts.Store = ""
		env, err := cli.Open(opts)
		if err != nil {
			return err
		}
		defer env.Close()

		name, err := modelName(env)
		if err != nil {
			return err
		}
		def, err := env.Catalog.Definition(name)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if len(sets) > 0 || focus != "" {
			overlay = &graph.GraphOverlay{}
			if len(sets) > 0 {
				values, err := parseSets(sets)
				if err != nil {
					return err
				}
				// Set after construction so the values differ from the baseline.
				m, err := env.Catalog.New(name, nil)
				if err != nil {
					return err
				}
				if err := m.SetAll(values); err != nil {
					return err
				}
				overlay = graph.OverlayFor(m)
				m.Destroy()
			}
			overlay.Focus = focus
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringArray("set", nil, "Attribute value as name=value, highlighted as changed")
	graphCmd.Flags().String("focus", "", "Attribute to highlight")
}
