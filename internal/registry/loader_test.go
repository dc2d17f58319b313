package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestApplyOverrides_ReplacesInstructions(t *testing.T) {
	r := Default()
	path := writeOverrides(t, `
roles:
  market_research: "Focus on the European market."
  code_review: "Review with an emphasis on error handling."
`)

	require.NoError(t, ApplyOverrides(r, path))

	role, err := r.Role(RoleMarketResearch)
	require.NoError(t, err)
	assert.Equal(t, "Focus on the European market.", role.Instruction)

	role, err = r.Role(RoleCodeReview)
	require.NoError(t, err)
	assert.Equal(t, "Review with an emphasis on error handling.", role.Instruction)

	// Untouched roles keep their defaults.
	role, err = r.Role(RoleDeployment)
	require.NoError(t, err)
	assert.Contains(t, role.Instruction, "deploy")
}

func TestApplyOverrides_RejectsUnknownRole(t *testing.T) {
	r := Default()
	path := writeOverrides(t, `
roles:
  not_a_role: "whatever"
`)

	err := ApplyOverrides(r, path)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestApplyOverrides_RejectsEmptyInstruction(t *testing.T) {
	r := Default()
	path := writeOverrides(t, `
roles:
  deployment: ""
`)

	err := ApplyOverrides(r, path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty instruction")
}

func TestApplyOverrides_MissingFile(t *testing.T) {
	r := Default()

	err := ApplyOverrides(r, filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestApplyOverrides_MalformedYAML(t *testing.T) {
	r := Default()
	path := writeOverrides(t, "roles: [not a map")

	err := ApplyOverrides(r, path)

	assert.Error(t, err)
}
