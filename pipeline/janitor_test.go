package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AlessandroHultman/fp-analysis/errors"
	"github.com/AlessandroHultman/fp-analysis/lang"
	"github.com/AlessandroHultman/fp-analysis/scan"
)

func testTask(t *testing.T, root, relPath, language string) Task {
	t.Helper()
	ext := filepath.Ext(relPath)
	return Task{
		Source: scan.SourceFile{
			Path:    filepath.Join(root, relPath),
			RelPath: relPath,
			Ext:     ext,
			Root:    root,
		},
		Profile: lang.Profile{Ext: ext, Language: language},
	}
}

func TestMergeAppendsReportAndRemovesIt(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	janitor := NewJanitor(zaptest.NewLogger(t).Sugar())

	task := testTask(t, root, "a.c", "c")
	report := filepath.Join(scratch, "a.csv")
	require.NoError(t, os.WriteFile(report, []byte("a,fp_ops,3"), 0o644))

	require.NoError(t, janitor.Merge(task, scratch))

	data, err := os.ReadFile(filepath.Join(ResultsDir(root, "c"), AggregateFileName))
	require.NoError(t, err)
	assert.Equal(t, "a,fp_ops,3\n", string(data), "report must land in the aggregate with a trailing newline")

	_, err = os.Stat(report)
	assert.True(t, os.IsNotExist(err), "merged report must be deleted")
}

func TestMergeAccumulatesAcrossCalls(t *testing.T) {
	root := t.TempDir()
	janitor := NewJanitor(zaptest.NewLogger(t).Sugar())

	for _, name := range []string{"a", "b"} {
		scratch := t.TempDir()
		task := testTask(t, root, name+".c", "c")
		require.NoError(t, os.WriteFile(filepath.Join(scratch, name+".csv"), []byte(name+",1\n"), 0o644))
		require.NoError(t, janitor.Merge(task, scratch))
	}

	data, err := os.ReadFile(filepath.Join(ResultsDir(root, "c"), AggregateFileName))
	require.NoError(t, err)
	assert.Equal(t, "a,1\nb,1\n", string(data), "aggregate is append-only, never truncated")
}

func TestMergeMissingReportIsRecoverable(t *testing.T) {
	root := t.TempDir()
	scratch := t.TempDir()
	janitor := NewJanitor(zaptest.NewLogger(t).Sugar())

	err := janitor.Merge(testTask(t, root, "a.c", "c"), scratch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingReport))
	assert.True(t, errors.IsRecoverable(err), "a missing report must not kill the worker")
}

func TestCleanupRemovesScratch(t *testing.T) {
	scratch := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scratch, "a.ll"), []byte("ir"), 0o644))

	NewJanitor(zaptest.NewLogger(t).Sugar()).Cleanup(scratch)

	_, err := os.Stat(scratch)
	assert.True(t, os.IsNotExist(err))
}

func TestConcurrentAppendsNeverInterleave(t *testing.T) {
	dir := t.TempDir()
	janitor := NewJanitor(zaptest.NewLogger(t).Sugar())

	const writers = 100
	const width = 1024

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row := strings.Repeat(string(rune('a'+i%26)), width)
			if i%2 == 0 {
				row += "\n"
			}
			assert.NoError(t, janitor.appendAggregate(dir, []byte(row)))
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, AggregateFileName))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, writers)
	for _, line := range lines {
		require.Len(t, line, width)
		require.Equal(t, strings.Repeat(line[:1], width), line, "rows from concurrent writers must stay contiguous")
	}
}
