package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/config"
	"github.com/campusqa/campusqa/internal/log"
	"github.com/campusqa/campusqa/internal/task"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the knowledge base from the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex()
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.LogSlogLevel(), JSON: cfg.LogJSON})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if err := a.RebuildKB(); err != nil {
		return fmt.Errorf("starting rebuild: %w", err)
	}
	status := waitForTask(ctx, a.RebuildStatus)
	if status.Error != "" {
		return fmt.Errorf("rebuild failed: %s", status.Error)
	}

	fmt.Printf("Knowledge base rebuilt: %d chunks indexed\n", a.ChunkCount())
	return nil
}

// waitForTask polls status until the task leaves the running state or
// ctx is canceled.
func waitForTask(ctx context.Context, status func() task.Status) task.Status {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		s := status()
		if !s.Running {
			return s
		}
		select {
		case <-ctx.Done():
			return status()
		case <-ticker.C:
		}
	}
}
