// Package errors provides error handling for fp-analysis.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrFrontendFailed) {
//	    // handle toolchain failure
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
)

// Sentinel errors for the analysis pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrInvalidRoot indicates the scan root does not exist or is not a
	// directory. This is the only fatal error: no work is attempted.
	ErrInvalidRoot = New("invalid root directory")

	// ErrUnknownLanguage indicates a --langs token that maps to no
	// supported extension. Reported, never fatal.
	ErrUnknownLanguage = New("unknown language")

	// ErrFrontendFailed indicates the compiler frontend exited non-zero
	// or produced no IR artifact. Recoverable per file.
	ErrFrontendFailed = New("frontend failed")

	// ErrAnalysisFailed indicates the analysis tool exited non-zero.
	// Recoverable per file; no report is assumed present.
	ErrAnalysisFailed = New("analysis failed")

	// ErrToolTimeout indicates an external tool invocation exceeded the
	// configured per-invocation timeout. Recoverable per file.
	ErrToolTimeout = New("tool invocation timed out")

	// ErrMissingReport indicates the analysis step succeeded but no
	// report artifact was found to merge. Recoverable per file.
	ErrMissingReport = New("missing result artifact")
)

// IsRecoverable reports whether err is a contained per-file failure that
// must not abort the run.
func IsRecoverable(err error) bool {
	return err != nil && IsAny(err,
		ErrFrontendFailed,
		ErrAnalysisFailed,
		ErrToolTimeout,
		ErrMissingReport,
	)
}
