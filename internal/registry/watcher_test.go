package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_InitialLoadAndReload(t *testing.T) {
	r := Default()
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  code_generation: write code v1\n"), 0o600))

	w, err := NewWatcher(r, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(context.Background()))

	role, err := r.Role(RoleCodeGeneration)
	require.NoError(t, err)
	assert.Equal(t, "write code v1", role.Instruction)

	require.NoError(t, os.WriteFile(path, []byte("roles:\n  code_generation: write code v2\n"), 0o600))

	assert.Eventually(t, func() bool {
		role, err := r.Role(RoleCodeGeneration)
		return err == nil && role.Instruction == "write code v2"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_BadReloadKeepsPrevious(t *testing.T) {
	r := Default()
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  code_generation: good instruction\n"), 0o600))

	w, err := NewWatcher(r, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("roles: [broken"), 0o600))

	// The broken file is rejected; the last good instruction survives.
	time.Sleep(200 * time.Millisecond)
	role, err := r.Role(RoleCodeGeneration)
	require.NoError(t, err)
	assert.Equal(t, "good instruction", role.Instruction)
}

func TestWatcher_StartFailsOnMissingFile(t *testing.T) {
	r := Default()

	w, err := NewWatcher(r, filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.Error(t, w.Start(context.Background()))
}
