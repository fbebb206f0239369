package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/pkg/domain"
	"github.com/aretw0/facet/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema>",
	Short: "Check a schema for consistency",
	Long: `Compiles every model of the schema, reporting unknown kinds, broken formulas,
dependency cycles and invalid validator tags. Each model is then instantiated
with its defaults and validated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if err := runValidate(cmd.Context(), out, args[0]); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(out, "Schema is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, out io.Writer, schemaPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := options(schemaPath)
	opts.Store = ""
	env, err := cli.Open(opts)
	if err != nil {
		for _, e := range schema.ValidationErrors(err) {
			fmt.Fprintf(out, "- %v\n", e)
		}
		return err
	}
	defer env.Close()

	for _, name := range env.Catalog.Names() {
		def, _ := env.Catalog.Definition(name)
		fmt.Fprintf(out, "%s: %d attributes, %d derived\n", name, len(def.Attributes), len(def.DerivationOrder()))

		m, err := env.Catalog.New(name, nil)
		if err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
		var verrs *domain.ValidationErrors
		if err := m.Validate(ctx); errors.As(err, &verrs) {
			for _, e := range verrs.Errors {
				fmt.Fprintf(out, "  warning: defaults do not validate: %v\n", e)
			}
		} else if err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
		m.Destroy()
	}
	return nil
}
