package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/campusqa/campusqa/internal/app"
	"github.com/campusqa/campusqa/internal/config"
	"github.com/campusqa/campusqa/internal/log"
	"github.com/campusqa/campusqa/internal/rag"
)

var askStream bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	rootCmd.AddCommand(askCmd)
}

func runAsk(question string) error {
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

	if askStream {
		return askStreaming(ctx, a, question)
	}

	result := a.Answer(ctx, question)
	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources: %s\n", strings.Join(result.Sources, ", "))
	}
	return nil
}

// askStreaming prints the answer incrementally, rewriting the line as
// partials grow, then the final answer with sources.
func askStreaming(ctx context.Context, a *app.App, question string) error {
	var printed int
	err := a.AnswerStream(ctx, question, func(ev rag.Event) error {
		switch ev.Phase {
		case rag.PhaseStreaming:
			if len(ev.Partial) > printed {
				fmt.Fprint(os.Stdout, ev.Partial[printed:])
				printed = len(ev.Partial)
			}
		case rag.PhaseComplete:
			if len(ev.Response) > printed {
				fmt.Fprint(os.Stdout, ev.Response[printed:])
			}
			fmt.Println()
			if len(ev.Sources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(ev.Sources, ", "))
			}
		case rag.PhaseError:
			fmt.Fprintf(os.Stderr, "\nError: %s\n", ev.Error)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("streaming answer: %w", err)
	}
	return nil
}
