package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/internal/presentation/tui"
	"github.com/aretw0/facet/pkg/domain"
)

var evalCmd = &cobra.Command{
	Use:   "eval <schema>",
	Short: "Instantiate a model and print its settled state",
	Long: `Creates one instance of --model with the --set values, waits for every
derivation to settle and prints the result. Validation failures are listed
and make the command fail.`,
	Example: `  facet eval people.yaml -m person --set first=Grace --set age=85
  facet eval people.yaml -m person --set first=Grace --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		format, _ := cmd.Flags().GetString("format")
		commit, _ := cmd.Flags().GetBool("commit")
		save, _ := cmd.Flags().GetBool("save")

		env, err := cli.Open(options(args[0]))
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := newModel(env, sets)
		if err != nil {
			return err
		}
		defer m.Destroy()

		ctx := cmd.Context()
		if err := m.Ready(ctx); err != nil {
			return err
		}
		if commit {
			m.Commit(domain.DefaultBranch)
		}
		if save {
			if err := m.Save(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		case "table":
			table := tui.ModelTable(m)
			if out == os.Stdout && cli.IsInteractive(os.Stdout) {
				if rendered, err := tui.NewRenderer()(table); err == nil {
					table = rendered
				}
			}
			fmt.Fprintln(out, table)
		default:
			return fmt.Errorf("unknown format %q (want json or table)", format)
		}

		var verrs *domain.ValidationErrors
		if err := m.Validate(ctx); errors.As(err, &verrs) {
			for _, e := range verrs.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "- %v\n", e)
			}
			return fmt.Errorf("%d validation errors", len(verrs.Errors))
		} else if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringArray("set", nil, "Attribute value as name=value (YAML syntax, repeatable)")
	evalCmd.Flags().String("format", "table", "Output format: json or table")
	evalCmd.Flags().Bool("commit", false, "Commit the values to the default branch before printing")
	evalCmd.Flags().Bool("save", false, "Save the instance to the configured store")
}
