package pipeline

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AlessandroHultman/fp-analysis/config"
	"github.com/AlessandroHultman/fp-analysis/errors"
	"github.com/AlessandroHultman/fp-analysis/lang"
)

// stderrDetailLimit caps how much tool stderr is attached to an error.
const stderrDetailLimit = 2048

// Invoker runs the external toolchain for one task: the compiler frontend
// that lowers a source file to LLVM IR, and the analysis tool that
// inspects the IR. Every invocation runs inside the task's scratch
// directory under a per-invocation timeout.
type Invoker struct {
	optBinary     string
	pass          string
	disableOutput bool
	timeout       time.Duration
	limiter       *rate.Limiter // nil = no spawn throttling
	log           *zap.SugaredLogger
}

// NewInvoker builds an invoker from the analysis configuration.
func NewInvoker(cfg config.AnalysisConfig, timeout time.Duration, limiter *rate.Limiter, log *zap.SugaredLogger) *Invoker {
	return &Invoker{
		optBinary:     cfg.OptBinary,
		pass:          cfg.Pass,
		disableOutput: cfg.DisableOutput,
		timeout:       timeout,
		limiter:       limiter,
		log:           log.Named("invoker"),
	}
}

// EmitIR runs the frontend registered for the task's extension inside
// scratch and returns the path of the IR artifact. For assembly profiles
// (scalac) the emitted .s is lowered with llvm-dis and discarded first.
//
// Failure is per-file and recoverable: non-zero exit, timeout, or a
// missing artifact all halt this file's pipeline before the analysis
// stage.
func (inv *Invoker) EmitIR(task Task, scratch string) (string, error) {
	if inv.limiter != nil {
		// Throttle external process spawns across all workers.
		if err := inv.limiter.Wait(context.Background()); err != nil {
			return "", errors.Mark(err, errors.ErrFrontendFailed)
		}
	}

	argv := renderTemplate(task.Profile.Frontend, task.Source.Path)
	if err := inv.runTool(argv, scratch); err != nil {
		return "", markUnlessTimeout(err, errors.ErrFrontendFailed)
	}

	base := task.BaseName()
	if task.Profile.Assembly {
		// Legacy path: the frontend emits <base>.s; llvm-dis lowers it
		// to <base>.ll and the assembly is discarded.
		asm := filepath.Join(scratch, base+".s")
		if _, err := os.Stat(asm); err != nil {
			return "", errors.Wrapf(errors.ErrFrontendFailed, "no assembly artifact for %s", task.Source.RelPath)
		}
		if err := inv.runTool([]string{"llvm-dis", base + ".s"}, scratch); err != nil {
			return "", markUnlessTimeout(err, errors.ErrFrontendFailed)
		}
		if err := os.Remove(asm); err != nil {
			inv.log.Warnw("Failed to remove assembly artifact", "path", asm, "error", err)
		}
	}

	ir := filepath.Join(scratch, base+".ll")
	if _, err := os.Stat(ir); err != nil {
		return "", errors.Wrapf(errors.ErrFrontendFailed, "no IR artifact for %s", task.Source.RelPath)
	}
	return ir, nil
}

// Analyze runs the floating-point analysis pass over the IR artifact.
// The tool's only contractual effect is writing a report file next to the
// IR; its stdout is disabled.
func (inv *Invoker) Analyze(irPath, scratch string) error {
	argv := []string{inv.optBinary}
	if inv.disableOutput {
		argv = append(argv, "-disable-output")
	}
	argv = append(argv, irPath, "-passes="+inv.pass)

	if err := inv.runTool(argv, scratch); err != nil {
		return markUnlessTimeout(err, errors.ErrAnalysisFailed)
	}
	return nil
}

// runTool executes one external tool invocation with the configured
// timeout. The context is derived from Background deliberately: an
// interrupted run stops submitting tasks but never kills in-flight tool
// processes.
func (inv *Invoker) runTool(argv []string, dir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), inv.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	inv.log.Debugw("Running tool", "argv", argv, "dir", dir)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Mark(
			errors.Newf("%s timed out after %s", argv[0], inv.timeout),
			errors.ErrToolTimeout,
		)
	}

	toolErr := errors.Newf("%s: %v", argv[0], err)
	if detail := strings.TrimSpace(stderr.String()); detail != "" {
		if len(detail) > stderrDetailLimit {
			detail = detail[:stderrDetailLimit]
		}
		toolErr = errors.WithDetail(toolErr, detail)
	}
	return toolErr
}

// markUnlessTimeout tags a tool failure with the stage sentinel, keeping
// timeouts distinguishable.
func markUnlessTimeout(err error, sentinel error) error {
	if errors.Is(err, errors.ErrToolTimeout) {
		return err
	}
	return errors.Mark(err, sentinel)
}

// renderTemplate substitutes the source path into a frontend argv template.
func renderTemplate(template []string, sourcePath string) []string {
	argv := make([]string, len(template))
	for i, arg := range template {
		argv[i] = strings.ReplaceAll(arg, lang.SourcePlaceholder, sourcePath)
	}
	return argv
}
