package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(fs.Close)
	return fs
}

func TestSaveAndLoadFile(t *testing.T) {
	fs := newStorage(t)

	path, err := fs.SaveFile("exports", "chapter.zip", []byte("PK-one"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.BaseDir, "exports", "chapter.zip"), path)
	assert.NoFileExists(t, path+".tmp")

	data, err := fs.LoadFile("exports", "chapter.zip")
	require.NoError(t, err)
	assert.Equal(t, "PK-one", string(data))

	// 覆盖写入后缓存失效
	_, err = fs.SaveFile("exports", "chapter.zip", []byte("PK-two"))
	require.NoError(t, err)
	data, err = fs.LoadFile("exports", "chapter.zip")
	require.NoError(t, err)
	assert.Equal(t, "PK-two", string(data))
}

func TestRejectsTraversal(t *testing.T) {
	fs := newStorage(t)

	for _, name := range []string{"../escape.zip", "", ".hidden", "a/b.zip"} {
		_, err := fs.SaveFile("exports", name, []byte("x"))
		assert.True(t, apperrors.IsValidationError(err), name)
	}
	assert.False(t, fs.FileExists("exports", "../escape.zip"))
}

func TestListAndDeleteFiles(t *testing.T) {
	fs := newStorage(t)

	files, err := fs.ListFiles("exports")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = fs.SaveFile("exports", "old.zip", []byte("1"))
	require.NoError(t, err)
	_, err = fs.SaveFile("exports", "new.zip", []byte("22"))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(fs.BaseDir, "exports", "old.zip"), past, past))

	files, err = fs.ListFiles("exports")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "new.zip", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)

	require.NoError(t, fs.DeleteFile("exports", "old.zip"))
	err = fs.DeleteFile("exports", "old.zip")
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = fs.LoadFile("exports", "old.zip")
	assert.True(t, apperrors.IsNotFoundError(err))
}
