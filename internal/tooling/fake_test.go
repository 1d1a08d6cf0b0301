package tooling

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type call struct {
	Name string
	Args []string
	Opts RunOpts
}

// fakeRunner records calls and replies with canned results keyed by the
// joined argv.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []call
	results map[string]Result
	err     error
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, opts RunOpts) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{Name: name, Args: args, Opts: opts})

	if f.err != nil {
		return Result{}, f.err
	}

	key := strings.Join(append([]string{name}, args...), " ")
	if opts.Stdout != nil {
		_, _ = opts.Stdout.Write([]byte(f.results[key].Stdout))
	}

	return f.results[key], nil
}

func lookPathOnly(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}

		return "", errors.New("executable file not found in $PATH")
	}
}
