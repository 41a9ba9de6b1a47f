package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("int main() { return 0; }\n"), 0o644))
}

func collect(t *testing.T, ch <-chan SourceFile) []SourceFile {
	t.Helper()
	var files []SourceFile
	for f := range ch {
		files = append(files, f)
	}
	return files
}

func TestStreamUnrestricted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.c"))
	writeFile(t, filepath.Join(root, "sub", "b.rs"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"))

	s := NewScanner(zaptest.NewLogger(t).Sugar())
	ch, err := s.Stream(context.Background(), root, nil)
	require.NoError(t, err)

	files := collect(t, ch)
	require.Len(t, files, 3, "unrestricted mode yields every regular file")

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rels = append(rels, f.RelPath)
		assert.True(t, filepath.IsAbs(f.Path))
		assert.Equal(t, filepath.Ext(f.Path), f.Ext)
	}
	assert.ElementsMatch(t, []string{"a.c", filepath.Join("sub", "b.rs"), filepath.Join("sub", "deep", "c.txt")}, rels)
}

func TestStreamRestricted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.c"))
	writeFile(t, filepath.Join(root, "b.rs"))
	writeFile(t, filepath.Join(root, "c.txt"))
	writeFile(t, filepath.Join(root, "UPPER.C"))
	writeFile(t, filepath.Join(root, "nested", "main.c"))

	s := NewScanner(zaptest.NewLogger(t).Sugar())
	ch, err := s.Stream(context.Background(), root, []string{".c"})
	require.NoError(t, err)

	// Extension matching is case-sensitive, so UPPER.C stays out.
	files := collect(t, ch)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, ".c", f.Ext)
	}
}

func TestStreamInvalidRoot(t *testing.T) {
	s := NewScanner(zaptest.NewLogger(t).Sugar())

	_, err := s.Stream(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	// A file is not a valid root either
	root := t.TempDir()
	file := filepath.Join(root, "plain.c")
	writeFile(t, file)
	_, err = s.Stream(context.Background(), file, nil)
	require.Error(t, err)
}

func TestValidateRoot(t *testing.T) {
	root := t.TempDir()
	abs, err := ValidateRoot(root)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(abs))

	_, err = ValidateRoot(filepath.Join(root, "nope"))
	assert.Error(t, err)
}

func TestStreamStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, filepath.Join(root, "dir", string(rune('a'+i%26))+"file"+string(rune('0'+i%10))+".c"))
	}
	writeFile(t, filepath.Join(root, "x.c"))

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScanner(zaptest.NewLogger(t).Sugar())
	ch, err := s.Stream(ctx, root, nil)
	require.NoError(t, err)

	// Take one file, then cancel; the stream must terminate.
	<-ch
	cancel()
	for range ch {
	}
}
