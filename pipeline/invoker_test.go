package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/AlessandroHultman/fp-analysis/config"
	"github.com/AlessandroHultman/fp-analysis/errors"
	"github.com/AlessandroHultman/fp-analysis/lang"
)

// writeScript drops an executable shell script standing in for an
// external tool.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestInvoker(t *testing.T, cfg config.AnalysisConfig, timeout time.Duration) *Invoker {
	t.Helper()
	return NewInvoker(cfg, timeout, nil, zaptest.NewLogger(t).Sugar())
}

func frontendTask(t *testing.T, root, relPath, language string, frontend []string, assembly bool) Task {
	t.Helper()
	task := testTask(t, root, relPath, language)
	task.Profile.Frontend = frontend
	task.Profile.Assembly = assembly
	return task
}

func TestEmitIRProducesArtifact(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	bin := t.TempDir()

	// Emits <base>.ll into the working directory, like a real frontend.
	frontend := writeScript(t, bin, "fake-clang", `base=$(basename "$1"); printf 'ir\n' > "${base%.*}.ll"`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"}, time.Minute)
	task := frontendTask(t, root, "a.c", "c", []string{frontend, lang.SourcePlaceholder}, false)

	ir, err := inv.EmitIR(task, scratch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scratch, "a.ll"), ir)

	_, err = os.Stat(ir)
	assert.NoError(t, err)
}

func TestEmitIRFrontendExitFailure(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	bin := t.TempDir()

	frontend := writeScript(t, bin, "fake-clang", `echo "a.c:1: type error" >&2; exit 1`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"}, time.Minute)
	task := frontendTask(t, root, "a.c", "c", []string{frontend, lang.SourcePlaceholder}, false)

	_, err := inv.EmitIR(task, scratch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFrontendFailed))
	assert.True(t, errors.IsRecoverable(err))
	assert.Contains(t, errors.GetAllDetails(err), "a.c:1: type error", "tool stderr must survive into the error")
}

func TestEmitIRMissingArtifact(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	bin := t.TempDir()

	// Exits zero but never writes the IR file.
	frontend := writeScript(t, bin, "fake-clang", `exit 0`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"}, time.Minute)
	task := frontendTask(t, root, "a.c", "c", []string{frontend, lang.SourcePlaceholder}, false)

	_, err := inv.EmitIR(task, scratch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFrontendFailed))
}

func TestEmitIRTimeout(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	bin := t.TempDir()

	frontend := writeScript(t, bin, "fake-clang", `sleep 5`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"}, 100*time.Millisecond)
	task := frontendTask(t, root, "a.c", "c", []string{frontend, lang.SourcePlaceholder}, false)

	_, err := inv.EmitIR(task, scratch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrToolTimeout))
	assert.False(t, errors.Is(err, errors.ErrFrontendFailed), "timeouts keep their own sentinel")
}

func TestEmitIRAssemblyLowering(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	bin := t.TempDir()

	frontend := writeScript(t, bin, "fake-scalac", `base=$(basename "$1"); printf 'asm\n' > "${base%.*}.s"`)
	writeScript(t, bin, "llvm-dis", `printf 'ir\n' > "${1%.s}.ll"`)
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"}, time.Minute)
	task := frontendTask(t, root, "M.scala", "scala", []string{frontend, lang.SourcePlaceholder}, true)

	ir, err := inv.EmitIR(task, scratch)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(scratch, "M.ll"), ir)

	_, err = os.Stat(filepath.Join(scratch, "M.s"))
	assert.True(t, os.IsNotExist(err), "assembly intermediate must be removed after lowering")
}

func TestEmitIRWithSpawnRateLimit(t *testing.T) {
	root := t.TempDir()
	bin := t.TempDir()

	frontend := writeScript(t, bin, "fake-clang", `base=$(basename "$1"); printf 'ir\n' > "${base%.*}.ll"`)

	limiter := rate.NewLimiter(rate.Limit(1000), 1)
	inv := NewInvoker(
		config.AnalysisConfig{OptBinary: "opt", Pass: "fp-module-analysis"},
		time.Minute, limiter, zaptest.NewLogger(t).Sugar(),
	)

	for i := 0; i < 5; i++ {
		scratch := t.TempDir()
		task := frontendTask(t, root, "a.c", "c", []string{frontend, lang.SourcePlaceholder}, false)
		_, err := inv.EmitIR(task, scratch)
		require.NoError(t, err, "throttled spawns must still complete")
	}
}

func TestAnalyzeArgumentShape(t *testing.T) {
	scratch := t.TempDir()
	bin := t.TempDir()

	opt := writeScript(t, bin, "fake-opt", `printf '%s\n' "$@" > args.txt`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: opt, Pass: "fp-module-analysis", DisableOutput: true}, time.Minute)
	irPath := filepath.Join(scratch, "a.ll")
	require.NoError(t, os.WriteFile(irPath, []byte("ir"), 0o644))

	require.NoError(t, inv.Analyze(irPath, scratch))

	args, err := os.ReadFile(filepath.Join(scratch, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "-disable-output\n"+irPath+"\n-passes=fp-module-analysis\n", string(args))
}

func TestAnalyzeFailureIsMarked(t *testing.T) {
	scratch := t.TempDir()
	bin := t.TempDir()

	opt := writeScript(t, bin, "fake-opt", `echo "unknown pass" >&2; exit 1`)

	inv := newTestInvoker(t, config.AnalysisConfig{OptBinary: opt, Pass: "fp-module-analysis"}, time.Minute)

	err := inv.Analyze(filepath.Join(scratch, "a.ll"), scratch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAnalysisFailed))
	assert.True(t, errors.IsRecoverable(err))
}
