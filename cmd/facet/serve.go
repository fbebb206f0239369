package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/facet"
	"github.com/aretw0/facet/internal/cli"
	httpAdapter "github.com/aretw0/facet/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve <schema>",
	Short: "Start the HTTP server",
	Long: `Serves the records of a persistent model as a JSON API, with change
streams over SSE and Prometheus metrics at /metrics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := viper.GetString("port")

		opts := options(args[0])
		opts.Metrics = true
		if opts.Store == "" {
			opts.Store = cli.StoreMemory
		}
		env, err := cli.Open(opts)
		if err != nil {
			return err
		}
		defer env.Close()

		name, err := modelName(env)
		if err != nil {
			return err
		}
		manager, err := env.Catalog.Manager(name, env.Locker)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(manager,
			httpAdapter.WithLogger(env.Logger),
			httpAdapter.WithMetrics(env.Registry),
			httpAdapter.WithVersion(strings.TrimSpace(facet.Version)),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		out := cmd.OutOrStdout()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			cli.PrintSystemMessage(out, "Starting facet server on %s", srv.Addr)
			cli.PrintSystemMessage(out, "Serving %q records from %s (%s store)", name, args[0], opts.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Fprintln(out)
			cli.PrintSystemMessage(out, "Start shutdown... Signal: %v", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			cli.PrintSystemMessage(out, "facet server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}
