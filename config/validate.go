package config

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/AlessandroHultman/fp-analysis/errors"
)

// Validate checks configuration invariants that would otherwise surface
// deep inside a run.
func Validate(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return errors.Newf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.ToolTimeoutSeconds <= 0 {
		return errors.Newf("scan.tool_timeout_seconds must be > 0, got %d", cfg.Scan.ToolTimeoutSeconds)
	}
	if cfg.Scan.SpawnRatePerSecond < 0 {
		return errors.Newf("scan.spawn_rate_per_second must be >= 0, got %g", cfg.Scan.SpawnRatePerSecond)
	}
	if strings.TrimSpace(cfg.Analysis.OptBinary) == "" {
		return errors.New("analysis.opt_binary must not be empty")
	}
	if strings.TrimSpace(cfg.Analysis.Pass) == "" {
		return errors.New("analysis.pass must not be empty")
	}

	for ext, template := range cfg.Toolchain.Overrides {
		if err := ValidateTemplate(template); err != nil {
			return errors.Wrapf(err, "toolchain.overrides.%s", ext)
		}
	}

	return nil
}

// ValidateTemplate checks that a frontend argv template shell-parses and
// references the source file placeholder.
func ValidateTemplate(template string) error {
	argv, err := shellquote.Split(template)
	if err != nil {
		return errors.Wrap(err, "template does not shell-parse")
	}
	if len(argv) == 0 {
		return errors.New("template is empty")
	}
	if !strings.Contains(template, "{source}") {
		return errors.New("template missing {source} placeholder")
	}
	return nil
}
