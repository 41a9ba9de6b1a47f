// Package scan enumerates source files under a root directory.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/AlessandroHultman/fp-analysis/errors"
)

// SourceFile is a discovered file. Values are read-only once emitted.
type SourceFile struct {
	Path    string // absolute path
	RelPath string // path relative to Root
	Ext     string // extension including the dot; matching is case-sensitive
	Root    string // the scanned root directory
}

// Scanner walks a directory tree and streams matching regular files.
type Scanner struct {
	log *zap.SugaredLogger
}

// NewScanner creates a scanner logging through the given logger.
func NewScanner(log *zap.SugaredLogger) *Scanner {
	return &Scanner{log: log.Named("scan")}
}

// ValidateRoot checks that root exists and is a directory. This is the
// run's only fatal precondition.
func ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidRoot, "%s: %v", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidRoot, "%s: %v", root, err)
	}
	if !info.IsDir() {
		return "", errors.Wrapf(errors.ErrInvalidRoot, "%s is not a directory", root)
	}
	return abs, nil
}

// Stream walks root recursively and sends every matching regular file on
// the returned channel. The sequence is finite, lazy and non-restartable;
// the channel closes when the walk completes or ctx is done.
//
// exts restricts the walk to the given extensions; nil or empty means
// every regular file is emitted. Subtree errors are logged and skipped,
// never fatal. Concurrent mutation of the tree during the walk has
// undefined effect on completeness.
func (s *Scanner) Stream(ctx context.Context, root string, exts []string) (<-chan SourceFile, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	filter := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		filter[ext] = struct{}{}
	}

	out := make(chan SourceFile)
	go func() {
		defer close(out)

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.log.Warnw("Skipping unreadable path", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			ext := filepath.Ext(d.Name())
			if len(filter) > 0 {
				if _, ok := filter[ext]; !ok {
					return nil
				}
			}

			rel, relErr := filepath.Rel(abs, path)
			if relErr != nil {
				rel = d.Name()
			}

			select {
			case out <- SourceFile{Path: path, RelPath: rel, Ext: ext, Root: abs}:
				return nil
			case <-ctx.Done():
				return filepath.SkipAll
			}
		})
		if walkErr != nil {
			s.log.Warnw("Directory walk ended early", "root", abs, "error", walkErr)
		}
	}()

	return out, nil
}
