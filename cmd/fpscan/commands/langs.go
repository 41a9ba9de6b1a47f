package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlessandroHultman/fp-analysis/config"
	"github.com/AlessandroHultman/fp-analysis/lang"
)

// LangsCmd lists the supported languages and their toolchains.
var LangsCmd = &cobra.Command{
	Use:   "langs",
	Short: "List supported languages and their toolchains",
	Long: `List every language the scanner understands: the --langs token, the
file extension it matches and the frontend invocation that lowers it to
LLVM IR. Frontend templates reflect any [toolchain.overrides] entries in
the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLangs()
	},
}

func runLangs() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	registry, err := lang.NewRegistry(cfg.Toolchain.Overrides)
	if err != nil {
		return err
	}

	fmt.Printf("%-12s %-8s %s\n", "LANGUAGE", "EXT", "FRONTEND")
	fmt.Printf("%-12s %-8s %s\n", "--------", "---", "--------")
	for _, p := range registry.Profiles() {
		frontend := strings.Join(p.Frontend, " ")
		if p.Assembly {
			frontend += "  (assembly, lowered via llvm-dis)"
		}
		fmt.Printf("%-12s %-8s %s\n", p.Language, p.Ext, frontend)
	}

	fmt.Printf("\nTotal: %d language(s)\n", len(registry.Profiles()))
	return nil
}
