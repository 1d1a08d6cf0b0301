package tooling

import (
	"bytes"
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExecRunner_CapturesStdoutAndStderr(t *testing.T) {
	skipOnWindows(t)

	res, err := NewExecRunner().Run(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"}, RunOpts{})
	require.NoError(t, err)

	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	res, err := NewExecRunner().Run(context.Background(), "sh", []string{"-c", "exit 3"}, RunOpts{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecRunner_StreamsAndUsesDir(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()

	var out bytes.Buffer

	res, err := NewExecRunner().Run(context.Background(), "sh", []string{"-c", "pwd; echo hello"}, RunOpts{
		Dir:    dir,
		Stdout: &out,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Stdout)
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), filepath.Base(dir))
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := NewExecRunner().Run(context.Background(), "pyqck-definitely-not-installed", nil, RunOpts{})
	assert.Error(t, err)
}
