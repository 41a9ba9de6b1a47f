package config

import (
	"github.com/spf13/viper"
)

// Default permissions for the ~/.fpscan directory
const DefaultDirPermissions = 0o755

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Scan defaults
	v.SetDefault("scan.workers", 0)                 // 0 = size from host CPU count
	v.SetDefault("scan.tool_timeout_seconds", 300)  // External tools carry an unbounded-hang hazard
	v.SetDefault("scan.spawn_rate_per_second", 0.0) // 0 = no spawn throttling

	// Analysis defaults
	v.SetDefault("analysis.opt_binary", "opt")
	v.SetDefault("analysis.pass", "fp-module-analysis")
	v.SetDefault("analysis.disable_output", true)

	// Run journal defaults
	v.SetDefault("database.path", "fpscan.db")
}
