// Command zeka runs the scoring engine against a compiled artifact,
// watching the current working directory and rewriting report.html
// whenever the scored set changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajiang-xyz/ZekaEngine/internal/artifact"
	"github.com/ajiang-xyz/ZekaEngine/internal/engine"
	"github.com/ajiang-xyz/ZekaEngine/internal/events"
	"github.com/ajiang-xyz/ZekaEngine/internal/events/fsnotifysrc"
	"github.com/ajiang-xyz/ZekaEngine/internal/report"
)

const tickInterval = time.Second

func main() {
	var artifactPath string
	var reportPath string

	rootCmd := &cobra.Command{
		Use:           "zeka",
		Short:         "Run the ZekaEngine scoring loop against a compiled artifact",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(artifactPath, reportPath)
		},
	}

	rootCmd.Flags().StringVar(&artifactPath, "artifact", "zeka.dat", "Path to the compiled artifact")
	rootCmd.Flags().StringVar(&reportPath, "report", "report.html", "Path to write the HTML report on change")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(artifactPath, reportPath string) error {
	f, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("zeka: opening %s: %w", artifactPath, err)
	}
	a, err := artifact.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("zeka: reading artifact: %w", err)
	}

	roots, err := watchedRoots(reportPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := events.NewCollector(tickInterval)
	source := fsnotifysrc.New(events.OriginFanotify, roots...)

	go func() {
		if err := source.Run(ctx, collector.In()); err != nil {
			fmt.Fprintf(os.Stderr, "zeka: filesystem watcher stopped: %v\n", err)
		}
	}()

	ticks := make(chan map[string]events.Metadata)
	go func() {
		if err := collector.Run(ctx, ticks); err != nil {
			fmt.Fprintf(os.Stderr, "zeka: collector stopped: %v\n", err)
		}
	}()

	ev := engine.New(a)
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch := <-ticks:
			scored, changed, err := ev.Tick(batch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "zeka: tick failed: %v\n", err)
				continue
			}
			if !changed {
				continue
			}
			if err := writeReport(reportPath, scored); err != nil {
				fmt.Fprintf(os.Stderr, "zeka: writing report: %v\n", err)
			}
		}
	}
}

// watchedRoots reports the directories the filesystem watcher should follow.
// A real deployment would derive this from the artifact's own var_1 path
// keys or a separate watch-list; this stub watches the current directory so
// the binary is runnable standalone.
func watchedRoots(reportPath string) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("zeka: resolving working directory: %w", err)
	}
	return []string{wd}, nil
}

func writeReport(path string, scored []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.Render(f, scored)
}
