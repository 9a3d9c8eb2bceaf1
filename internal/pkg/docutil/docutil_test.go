package docutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/internal/pkg/docutil"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, docutil.EnsureDir(dir))
	assert.True(t, docutil.DirExists(dir))

	// 再次调用应该不会报错
	assert.NoError(t, docutil.EnsureDir(dir))
}

func TestFindFiles(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "subdir"), 0o755))

	for _, f := range []string{
		filepath.Join(tmpDir, "b.pdf"),
		filepath.Join(tmpDir, "a.PDF"),
		filepath.Join(tmpDir, "notes.txt"),
		filepath.Join(tmpDir, "subdir", "c.pdf"),
	} {
		require.NoError(t, os.WriteFile(f, []byte("test"), 0o644))
	}

	t.Run("仅当前目录", func(t *testing.T) {
		files, err := docutil.FindFiles(tmpDir, []string{".pdf"}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(tmpDir, "a.PDF"),
			filepath.Join(tmpDir, "b.pdf"),
		}, files)
	})

	t.Run("递归查找", func(t *testing.T) {
		files, err := docutil.FindFiles(tmpDir, []string{".pdf"}, true)
		require.NoError(t, err)
		assert.Len(t, files, 3)
	})

	t.Run("目录不存在", func(t *testing.T) {
		_, err := docutil.FindFiles(filepath.Join(tmpDir, "missing"), []string{".pdf"}, false)
		assert.Error(t, err)
	})
}

func TestFileAndDirExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "x.pdf")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, docutil.FileExists(file))
	assert.False(t, docutil.DirExists(file))
	assert.True(t, docutil.DirExists(tmpDir))
	assert.False(t, docutil.FileExists(filepath.Join(tmpDir, "nope")))
}
