package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesAPIProject(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, code := executeWithCode(nil, "-C", dir, "new", "billing-api")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "OK Created api project `billing-api` (template fastapi")
	assert.Contains(t, stdout, "pyqck dev")

	for _, f := range []string{"pyproject.toml", "pyquick.toml", "src/billing_api/main.py"} {
		assert.FileExists(t, filepath.Join(dir, "billing-api", filepath.FromSlash(f)))
	}
}

func TestNew_LibSuggestsCheck(t *testing.T) {
	dir := t.TempDir()

	stdout, stderr, code := executeWithCode(nil, "-C", dir, "new", "mylib", "--profile", "lib")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "OK Created lib project `mylib`")
	assert.Contains(t, stdout, "pyqck check")
	assert.NotContains(t, stdout, "pyqck dev")
}

func TestNew_GeneratedConfigValidates(t *testing.T) {
	dir := t.TempDir()

	_, stderr, code := executeWithCode(nil, "-C", dir, "new", "orders", "--template", "flask")
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code := executeWithCode(nil, "-C", filepath.Join(dir, "orders"), "config", "validate")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "is valid")
}

func TestNew_Rejections(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown profile", []string{"new", "app", "--profile", "desktop"}, "ERROR [usage] Unsupported profile `desktop`."},
		{"incompatible template", []string{"new", "app", "--profile", "lib", "--template", "flask"}, "not compatible with profile `lib`"},
		{"old python", []string{"new", "app", "--python", "3.8"}, "ERROR [usage] `--python` must be 3.9 or newer, got `3.8`."},
		{"malformed python", []string{"new", "app", "--python", "three"}, "invalid Python version `three`"},
		{"missing name", []string{"new"}, "ERROR [usage]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()

			_, stderr, code := executeWithCode(nil, append([]string{"-C", dir}, tt.args...)...)

			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, tt.want)
			assert.NoDirExists(t, filepath.Join(dir, "app"))
		})
	}
}

func TestNew_NonEmptyDestination(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "taken"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taken", "keep.txt"), []byte("x"), 0o600))

	_, stderr, code := executeWithCode(nil, "-C", dir, "new", "taken")

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "ERROR [usage] Cannot create project in `taken`")
	assert.Contains(t, stderr, "Hint: Choose a new project name")
	assert.NoFileExists(t, filepath.Join(dir, "taken", "pyproject.toml"))
}
