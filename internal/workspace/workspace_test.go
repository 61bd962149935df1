package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEphemeralWorkspace(t *testing.T) {
	base := t.TempDir()
	mgr := NewManager(base)
	assert.Empty(t, mgr.Path())

	require.NoError(t, mgr.Create())
	dir := mgr.Path()
	assert.Equal(t, base, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "docweave-"))
	assert.DirExists(t, dir)

	other := NewManager(base)
	require.NoError(t, other.Create())
	assert.NotEqual(t, dir, other.Path(), "concurrent runs get distinct directories")

	require.NoError(t, mgr.Cleanup())
	assert.NoDirExists(t, dir)
	assert.Empty(t, mgr.Path())
	require.NoError(t, mgr.Cleanup(), "second cleanup is a no-op")
}

func TestPersistentWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache", "working")
	mgr := NewPersistentManager(dir)
	require.NoError(t, mgr.Create())
	assert.Equal(t, dir, mgr.Path())
	assert.True(t, mgr.Persistent())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep"), []byte("x"), 0o600))
	require.NoError(t, mgr.Cleanup())
	assert.FileExists(t, filepath.Join(dir, "keep"))
}

func TestCreateFailsUnderFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	require.Error(t, NewManager(file).Create())
	require.Error(t, NewPersistentManager(filepath.Join(file, "ws")).Create())
}
