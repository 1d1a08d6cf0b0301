package ui

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newPlain(quiet bool) (*Reporter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewReporter(&out, &errOut, WithNoColor(true), WithQuiet(quiet)), &out, &errOut
}

func TestReporter_PlainLines(t *testing.T) {
	r, out, errOut := newPlain(false)

	r.Info("Watching %s", "src, tests")
	r.OK("lint")
	r.Failed("test", 2)
	r.Error("tooling", "Configured runner for `testing` not found: `uv`.", "Install `uv` and retry.")

	assert.Equal(t, "Watching src, tests\nOK lint\n", out.String())
	assert.Equal(t,
		"FAILED [test] exit code 2\n"+
			"ERROR [tooling] Configured runner for `testing` not found: `uv`.\n"+
			"Hint: Install `uv` and retry.\n",
		errOut.String(),
	)
}

func TestReporter_ErrorWithoutHint(t *testing.T) {
	r, _, errOut := newPlain(false)

	r.Error("usage", "bad flag", "")

	assert.Equal(t, "ERROR [usage] bad flag\n", errOut.String())
}

func TestReporter_QuietKeepsFailures(t *testing.T) {
	r, out, errOut := newPlain(true)

	r.Info("hidden")
	r.OK("hidden")
	r.Failed("lint", 1)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "FAILED [lint] exit code 1")
}

func TestReporter_OutputAddsNewline(t *testing.T) {
	r, out, _ := newPlain(false)

	r.Output("")
	r.Output("1 passed")
	r.Output("done\n")

	assert.Equal(t, "1 passed\ndone\n", out.String())
}

func TestReporter_ConcurrentWrites(t *testing.T) {
	r, out, _ := newPlain(false)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			r.Info("line")
		}()
	}

	wg.Wait()

	assert.Equal(t, 20, bytes.Count(out.Bytes(), []byte("line\n")))
}
