// Package entry decides what `pyqck run` executes for a project.
package entry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
)

// Kind says how a Target was found.
type Kind string

// Target kinds in resolution order.
const (
	KindServer Kind = "server"
	KindScript Kind = "script"
	KindModule Kind = "module"
)

// Target is a resolved run command.
type Target struct {
	Kind    Kind
	Name    string
	Command []string
}

type pyproject struct {
	Project struct {
		Scripts map[string]string `toml:"scripts"`
	} `toml:"project"`
}

// Resolve picks the run target: the dev server for api projects, then the
// first [project.scripts] entry by name, then `python -m <package>` when
// src/<package>/__main__.py exists.
func Resolve(adapters *tooling.Adapters) (*Target, error) {
	cfg := adapters.Config()

	if cfg.IsAPI() {
		argv, err := adapters.ServerCommand()
		if err != nil {
			return nil, err
		}

		return &Target{Kind: KindServer, Name: cfg.Run.App, Command: argv}, nil
	}

	script, err := firstScript(cfg.RootDir)
	if err != nil {
		return nil, err
	}

	if script != "" {
		argv, err := adapters.Command(tooling.Packaging, "run", script)
		if err != nil {
			return nil, err
		}

		return &Target{Kind: KindScript, Name: script, Command: argv}, nil
	}

	pkg := cfg.Package()
	if _, err := os.Stat(filepath.Join(cfg.RootDir, "src", pkg, "__main__.py")); err == nil {
		argv, err := adapters.Command(tooling.Packaging, "run", "python", "-m", pkg)
		if err != nil {
			return nil, err
		}

		return &Target{Kind: KindModule, Name: pkg, Command: argv}, nil
	}

	return nil, &tooling.ToolError{
		Kind:    tooling.NoEntryPoint,
		Message: fmt.Sprintf("No runnable entry point found for profile `%s`.", cfg.Project.Profile),
		Hint: fmt.Sprintf("Add a script under `[project.scripts]` in pyproject.toml or create `src/%s/__main__.py`.",
			pkg),
	}
}

func firstScript(root string) (string, error) {
	path := filepath.Join(root, "pyproject.toml")

	data, err := os.ReadFile(path) //nolint:gosec // project's own pyproject.toml
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", &project.ConfigError{
			Message: "Could not read `pyproject.toml`.",
			Hint:    "Check file permissions and retry.",
			Err:     err,
		}
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", &project.ConfigError{
			Message: fmt.Sprintf("Invalid TOML in `pyproject.toml`: %v.", err),
			Hint:    "Fix TOML syntax errors and retry.",
			Err:     err,
		}
	}

	names := make([]string, 0, len(doc.Project.Scripts))
	for name := range doc.Project.Scripts {
		names = append(names, name)
	}

	if len(names) == 0 {
		return "", nil
	}

	sort.Strings(names)

	return names[0], nil
}
