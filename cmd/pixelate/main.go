package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/grouting/pixelate/logger"
	"github.com/grouting/pixelate/pipeline"
	"github.com/grouting/pixelate/profiler"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, so it can be tested.
func run(args []string, stdout, stderr io.Writer) int {
	log := logger.New(stderr)

	cfg, err := parseArgs(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return 2
	}
	if err != nil {
		log.Errorf("%v", err)
		return 2
	}

	if cfg.LogFile != "" {
		logFile, err := log.AttachFile(cfg.LogFile)
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		defer logFile.Close()
	}

	var prof *profiler.Profiler
	if cfg.Stats {
		prof = profiler.New()
	}

	runner, err := pipeline.NewRunner(cfg, log, prof)
	if err != nil {
		log.Errorf("%v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner.Run(ctx)
	if report != nil {
		printSummary(stdout, report)
	}
	if prof != nil {
		prof.Report(stdout)
	}
	if err != nil {
		log.Errorf("%v", err)
		return 1
	}

	return 0
}

// printSummary writes the one-line result of a run.
func printSummary(w io.Writer, report *pipeline.Report) {
	if report.Total <= 1 && report.Skipped == 0 {
		for _, out := range report.Outcomes {
			if out.OutputPath != "" {
				fmt.Fprintf(w, "Saved %s\n", out.OutputPath)
			}
		}
		return
	}

	countStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	skipStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	fmt.Fprintf(w, "Pixelated %s of %d images (%s skipped) in %.2fs\n",
		countStyle.Render(fmt.Sprintf("%d", report.Processed)),
		report.Total,
		skipStyle.Render(fmt.Sprintf("%d", report.Skipped)),
		report.Duration.Seconds())
}
