package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlessandroHultman/fp-analysis/config"
	"github.com/AlessandroHultman/fp-analysis/db"
	"github.com/AlessandroHultman/fp-analysis/journal"
	"github.com/AlessandroHultman/fp-analysis/logger"
)

// RunsCmd represents the runs command - run journal inspection
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past scan runs",
	Long: `Inspect the run journal.

Every scan is recorded in a local SQLite journal along with its per-file
outcomes.

Run journal commands:
  fpscan runs ls              # List recent runs
  fpscan runs show <run-id>   # Show one run's per-file outcomes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// RunsLsCmd lists recent runs
var RunsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent scan runs",
	Long: `List recent scan runs, newest first.

Examples:
  fpscan runs ls              # List the 20 most recent runs
  fpscan runs ls --limit 50   # Show up to 50 runs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return runRunsLs(limit)
	},
}

// RunsShowCmd shows one run's details
var RunsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run's per-file outcomes",
	Long: `Display one run's header and every file it processed, including the
pipeline stage each failure occurred at.

Example:
  fpscan runs show RN_abc123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRunsShow(args[0])
	},
}

func init() {
	RunsLsCmd.Flags().Int("limit", 20, "Maximum number of runs to display")

	RunsCmd.AddCommand(RunsLsCmd)
	RunsCmd.AddCommand(RunsShowCmd)
}

func openStore() (*journal.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	return journal.NewStore(database), func() { database.Close() }, nil
}

func runRunsLs(limit int) error {
	store, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-15s %-12s %-30s %-6s %-6s %-6s %s\n", "RUN ID", "STATUS", "ROOT", "FOUND", "OK", "FAILED", "STARTED")
	fmt.Printf("%-15s %-12s %-30s %-6s %-6s %-6s %s\n", "------", "------", "----", "-----", "--", "------", "-------")
	for _, run := range runs {
		fmt.Printf("%-15s %-12s %-30s %-6d %-6d %-6d %s\n",
			truncate(run.ID, 15),
			run.Status,
			truncate(run.Root, 30),
			run.FilesFound,
			run.FilesSucceeded,
			run.FilesFailed,
			run.StartedAt.Format("2006-01-02 15:04"))
	}

	fmt.Printf("\nTotal: %d run(s)\n", len(runs))
	return nil
}

func runRunsShow(runID string) error {
	store, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run ID: %s\n", run.ID)
	fmt.Printf("  Root:   %s\n", run.Root)
	if run.Langs != "" {
		fmt.Printf("  Langs:  %s\n", run.Langs)
	}
	fmt.Printf("  Status: %s\n", run.Status)
	fmt.Printf("\n")

	fmt.Printf("Files: %d found, %d succeeded, %d failed\n",
		run.FilesFound, run.FilesSucceeded, run.FilesFailed)
	fmt.Printf("\n")

	fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		fmt.Printf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	files, err := store.ListFiles(runID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	fmt.Printf("\n%-40s %-12s %-10s %-8s %s\n", "PATH", "LANGUAGE", "STAGE", "STATUS", "ERROR")
	fmt.Printf("%-40s %-12s %-10s %-8s %s\n", "----", "--------", "-----", "------", "-----")
	for _, rec := range files {
		fmt.Printf("%-40s %-12s %-10s %-8s %s\n",
			truncate(rec.Path, 40),
			rec.Language,
			rec.Stage,
			rec.Status,
			truncate(rec.Error, 60))
	}

	return nil
}

// truncate shortens a string to maxLen characters with an ellipsis
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
