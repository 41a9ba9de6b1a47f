package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/AlessandroHultman/fp-analysis/config"
	"github.com/AlessandroHultman/fp-analysis/db"
	"github.com/AlessandroHultman/fp-analysis/journal"
	"github.com/AlessandroHultman/fp-analysis/lang"
	"github.com/AlessandroHultman/fp-analysis/logger"
	"github.com/AlessandroHultman/fp-analysis/pipeline"
	"github.com/AlessandroHultman/fp-analysis/scan"
)

// ScanCmd runs the floating-point analysis over a directory tree.
var ScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze floating-point behavior of source files under a directory",
	Long: `Walk a directory tree, lower every supported source file to LLVM IR
with its language's compiler frontend and run the floating-point analysis
pass over the IR. Per-file reports are appended to a per-language
aggregate (<language>-results/results.csv) under the scanned root.

Per-file toolchain failures are reported and counted but never abort the
run; the only fatal error is an unusable root directory.

Examples:
  fpscan scan --dir ./src                      # All supported languages
  fpscan scan --dir ./src --langs c --langs c++
  fpscan scan --dir ./src --workers 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		langs, _ := cmd.Flags().GetStringSlice("langs")
		workers, _ := cmd.Flags().GetInt("workers")
		return runScan(dir, langs, workers)
	},
}

func init() {
	ScanCmd.Flags().StringP("dir", "d", "", "Root directory to scan (required)")
	ScanCmd.Flags().StringSliceP("langs", "l", nil, "Restrict to these languages (repeatable; see 'fpscan langs')")
	ScanCmd.Flags().Int("workers", 0, "Concurrent workers (0 = physical CPU count)")
	ScanCmd.MarkFlagRequired("dir")
}

func runScan(dir string, langs []string, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if workers == 0 {
		workers = cfg.Scan.Workers
	}

	registry, err := lang.NewRegistry(cfg.Toolchain.Overrides)
	if err != nil {
		return err
	}

	var limiter *rate.Limiter
	if cfg.Scan.SpawnRatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Scan.SpawnRatePerSecond), 1)
	}

	timeout := time.Duration(cfg.Scan.ToolTimeoutSeconds) * time.Second
	invoker := pipeline.NewInvoker(cfg.Analysis, timeout, limiter, logger.Logger)
	janitor := pipeline.NewJanitor(logger.Logger)
	scanner := scan.NewScanner(logger.Logger)

	// The run journal is best-effort: an unusable database disables it
	// but never blocks the scan.
	var jrnl *journal.Journal
	database, dbErr := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if dbErr != nil {
		logger.Warnw("Run journal unavailable", "path", cfg.Database.Path, "error", dbErr)
	} else {
		defer database.Close()
		jrnl = journal.New(journal.NewStore(database), logger.Logger)
	}

	driver := pipeline.NewDriver(registry, scanner, invoker, janitor, jrnl, workers, logger.Logger)

	// Ctrl+C stops submitting new files; in-flight tool invocations are
	// left to finish under their own timeouts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		pterm.Warning.Println("Interrupt received, draining in-flight files")
		cancel()
	}()

	scope := "all supported languages"
	if len(langs) > 0 {
		scope = strings.Join(langs, ", ")
	}
	pterm.Info.Printf("Scanning %s (%s)\n", dir, scope)

	summary, err := driver.Run(ctx, dir, langs)
	if err != nil {
		return err
	}

	if summary.Failed > 0 {
		pterm.Warning.Printf("Analyzed %d/%d files in %s (%d failed)\n",
			summary.Succeeded, summary.Found, summary.Duration.Round(time.Millisecond), summary.Failed)
	} else {
		pterm.Success.Printf("Analyzed %d/%d files in %s\n",
			summary.Succeeded, summary.Found, summary.Duration.Round(time.Millisecond))
	}
	if summary.MissingReports > 0 {
		pterm.Warning.Printf("%d file(s) produced no report artifact\n", summary.MissingReports)
	}
	return nil
}
