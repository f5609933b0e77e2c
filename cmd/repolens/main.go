package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/pipeline"
	"github.com/repolens/repolens/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:   "repolens",
		Short: "GitHub repository summaries via LLM",
	}

	root.AddCommand(serveCmd(), summarizeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			p := pipeline.New(cfg)
			srv := server.New(cfg.Port, server.NewMux(p, log), log)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(sctx)
			})
			return g.Wait()
		},
	}
}

func summarizeCmd() *cobra.Command {
	var readmeOnly bool

	cmd := &cobra.Command{
		Use:   "summarize [url]",
		Short: "Summarize a single repository and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			p := pipeline.New(cfg)
			resp, err := p.Run(cmd.Context(), args[0], pipeline.Options{ReadmeOnly: readmeOnly})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&readmeOnly, "readme-only", false, "Skip the clone and summarize from the README alone")
	return cmd
}
