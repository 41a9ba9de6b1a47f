// Package config loads the fpscan configuration from TOML files and
// environment variables via Viper.
package config

// Config represents the fpscan configuration
type Config struct {
	Scan      ScanConfig      `mapstructure:"scan"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Toolchain ToolchainConfig `mapstructure:"toolchain"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ScanConfig configures the concurrent scan pipeline
type ScanConfig struct {
	Workers            int     `mapstructure:"workers"`               // Concurrent pipeline workers (0 = physical CPU count)
	ToolTimeoutSeconds int     `mapstructure:"tool_timeout_seconds"`  // Per external-tool-invocation timeout
	SpawnRatePerSecond float64 `mapstructure:"spawn_rate_per_second"` // Frontend spawn rate limit (0 = unlimited)
}

// AnalysisConfig configures the external floating-point analysis pass
type AnalysisConfig struct {
	OptBinary     string `mapstructure:"opt_binary"`     // Analysis tool binary (default: opt)
	Pass          string `mapstructure:"pass"`           // Analysis pass identifier
	DisableOutput bool   `mapstructure:"disable_output"` // Run the tool in disabled-output mode
}

// ToolchainConfig overrides frontend invocations per extension.
// Keys are extensions without the dot (e.g. "c", "cpp"); values are
// shell-quoted argv templates containing a {source} placeholder:
//
//	[toolchain.overrides]
//	c = "clang-18 -emit-llvm -S {source}"
type ToolchainConfig struct {
	Overrides map[string]string `mapstructure:"overrides"`
}

// DatabaseConfig configures the SQLite run journal
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}
