// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biosearch/internal/api"
	"github.com/pdiddy/biosearch/internal/history"
	"github.com/pdiddy/biosearch/internal/pipeline"
	"github.com/pdiddy/biosearch/internal/task"
	"github.com/pdiddy/biosearch/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the HTTP API. Searches submitted over the API run as
background tasks; finished tasks are archived to the history database so
results outlive the in-memory task table.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	tasks := task.NewManager(cfg.Tasks)
	store, err := history.NewStore(cfg.History)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	tasks.OnTerminal = func(t types.Task) {
		if err := store.SaveTask(context.Background(), t); err != nil {
			fmt.Fprintf(os.Stderr, "warning: archiving task %s failed: %v\n", t.ID, err)
		}
	}

	server := api.New(pipeline.New(cfg, tasks), tasks, store)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.Server.Addr)
		errCh <- server.Start(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
