package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand_Shells(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := executeCommand("completion", shell)
			require.NoError(t, err)

			assert.Contains(t, stdout, "pyqck")
		})
	}
}

func TestCompletionCommand_UnknownShell(t *testing.T) {
	_, _, code := executeWithCode(nil, "completion", "tcsh")
	assert.Equal(t, 2, code)
}

func TestNewCommand_CompletesTemplates(t *testing.T) {
	stdout, _, err := executeCommand("__complete", "new", "app", "--profile", "api", "--template", "")
	require.NoError(t, err)

	assert.Contains(t, stdout, "fastapi")
	assert.Contains(t, stdout, "flask")
	assert.NotContains(t, stdout, "baseline-lib")
}
