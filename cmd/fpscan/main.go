package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AlessandroHultman/fp-analysis/cmd/fpscan/commands"
	"github.com/AlessandroHultman/fp-analysis/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fpscan",
	Short: "fpscan - Static floating-point behavior analysis over source trees",
	Long: `fpscan - Static floating-point behavior analysis over source trees.

fpscan walks a directory, lowers every supported source file to LLVM IR
with its language's compiler frontend and runs an LLVM analysis pass
over the result. Reports are aggregated per language under the scanned
root.

Available commands:
  scan   - Analyze a directory tree
  langs  - List supported languages and toolchains
  runs   - Inspect past runs from the journal

Examples:
  fpscan scan --dir ./src                 # Analyze everything supported
  fpscan scan --dir ./src --langs rust    # Rust files only
  fpscan langs                            # Show toolchain table
  fpscan runs ls                          # List recorded runs`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.ScanCmd)
	rootCmd.AddCommand(commands.LangsCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
