package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/facet/internal/cli"
	"github.com/aretw0/facet/pkg/session"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage stored records",
	Long:  `List, inspect, and remove the records of a persistent model in the configured store.`,
}

var recordsLsCmd = &cobra.Command{
	Use:   "ls <schema>",
	Short: "List record ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, mgr, err := openManager(args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		ids, err := mgr.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing records: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No records found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, "- "+id)
		}
		return nil
	},
}

var recordsInspectCmd = &cobra.Command{
	Use:   "inspect <schema> <id>",
	Short: "Print a record with its derived attributes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, mgr, err := openManager(args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := mgr.Load(cmd.Context(), args[1])
		if err != nil {
			return fmt.Errorf("error loading record '%s': %w", args[1], err)
		}
		defer m.Destroy()

		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var recordsRmCmd = &cobra.Command{
	Use:   "rm <schema> <id>...",
	Short: "Remove one or more records",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, mgr, err := openManager(args[0])
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range args[1:] {
			if err := mgr.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Removed record '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d records not removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsLsCmd)
	recordsCmd.AddCommand(recordsInspectCmd)
	recordsCmd.AddCommand(recordsRmCmd)
}

// openManager defaults to the file store, the only backend that outlives the process.
func openManager(schemaPath string) (*cli.Environment, *session.Manager, error) {
	opts := options(schemaPath)
	if opts.Store == "" {
		opts.Store = cli.StoreFile
	}
	env, err := cli.Open(opts)
	if err != nil {
		return nil, nil, err
	}
	name, err := modelName(env)
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	mgr, err := env.Catalog.Manager(name, env.Locker)
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	return env, mgr, nil
}
