package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet"
	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/internal/presentation/tui"
	"github.com/aretw0/facet/pkg/model"
)

var consoleCmd = &cobra.Command{
	Use:   "console <schema>",
	Short: "Explore a model interactively",
	Long: `Opens a line-oriented console over one instance of --model. With --id the
record is loaded from the configured store, and 'save' writes it back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")
		id, _ := cmd.Flags().GetString("id")

		env, err := cli.Open(options(args[0]))
		if err != nil {
			return err
		}
		defer env.Close()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		var m *model.Model
		if id != "" {
			m, err = loadRecord(sigCtx, env, id)
		} else {
			m, err = newModel(env, sets)
		}
		if err != nil {
			return err
		}
		defer m.Destroy()

		interactive := cli.IsInteractive(os.Stdin) && cli.IsInteractive(os.Stdout)
		console := &facet.Console{
			Input:    cli.NewInterruptibleReader(os.Stdin, sigCtx.Done()),
			Output:   cmd.OutOrStdout(),
			Headless: !interactive,
		}
		if interactive {
			tui.PrintBanner(cmd.OutOrStdout())
			console.Renderer = tui.NewRenderer()
		}
		return cli.HandleExecutionError(console.Run(sigCtx, m))
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().StringArray("set", nil, "Initial attribute value as name=value")
	consoleCmd.Flags().String("id", "", "Load this record from the store")
}

func loadRecord(ctx context.Context, env *cli.Environment, id string) (*model.Model, error) {
	name, err := modelName(env)
	if err != nil {
		return nil, err
	}
	mgr, err := env.Catalog.Manager(name, env.Locker)
	if err != nil {
		return nil, err
	}
	return mgr.Load(ctx, id)
}
