package patch

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/pyqck/internal/project"
	"github.com/hupe1980/pyqck/internal/tooling"
)

const generatedHeader = "# Managed by pyqck sync; edit [features] in pyquick.toml instead.\n"

type preCommitConfig struct {
	Repos []preCommitRepo `yaml:"repos"`
}

type preCommitRepo struct {
	Repo  string          `yaml:"repo"`
	Rev   string          `yaml:"rev,omitempty"`
	Hooks []preCommitHook `yaml:"hooks"`
}

type preCommitHook struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name,omitempty"`
	Entry         string   `yaml:"entry,omitempty"`
	Language      string   `yaml:"language,omitempty"`
	Types         []string `yaml:"types,omitempty"`
	PassFilenames *bool    `yaml:"pass_filenames,omitempty"`
}

type workflow struct {
	Name string         `yaml:"name"`
	On   workflowOn     `yaml:"on"`
	Jobs map[string]job `yaml:"jobs"`
}

type workflowOn struct {
	Push        branches `yaml:"push"`
	PullRequest branches `yaml:"pull_request"`
}

type branches struct {
	Branches []string `yaml:"branches"`
}

type job struct {
	RunsOn   string   `yaml:"runs-on"`
	Strategy strategy `yaml:"strategy"`
	Steps    []step   `yaml:"steps"`
}

type strategy struct {
	FailFast bool   `yaml:"fail-fast"`
	Matrix   matrix `yaml:"matrix"`
}

type matrix struct {
	PythonVersion []string `yaml:"python-version"`
}

type step struct {
	Name string            `yaml:"name,omitempty"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Run  string            `yaml:"run,omitempty"`
}

func preCommitContent(cfg *project.Config) ([]byte, error) {
	a := tooling.New(cfg)
	noFiles := false

	local := preCommitRepo{Repo: "local"}

	hooks := []struct {
		id   string
		name string
		key  tooling.ToolKey
		args []string
	}{
		{"lint", "lint", tooling.Linting, []string{"check"}},
		{"format", "format", tooling.Formatting, []string{"format", "--check"}},
		{"typecheck", "typecheck", tooling.Typing, nil},
	}

	for _, h := range hooks {
		argv, err := a.Command(h.key, h.args...)
		if err != nil {
			return nil, err
		}

		hook := preCommitHook{
			ID:       h.id,
			Name:     h.name,
			Entry:    strings.Join(argv, " "),
			Language: "system",
			Types:    []string{"python"},
		}

		if h.key == tooling.Typing {
			hook.PassFilenames = &noFiles
		}

		local.Hooks = append(local.Hooks, hook)
	}

	doc := preCommitConfig{Repos: []preCommitRepo{
		{
			Repo: "https://github.com/pre-commit/pre-commit-hooks",
			Rev:  "v5.0.0",
			Hooks: []preCommitHook{
				{ID: "trailing-whitespace"},
				{ID: "end-of-file-fixer"},
				{ID: "check-yaml"},
				{ID: "check-toml"},
			},
		},
		local,
	}}

	return encode(doc)
}

func ciWorkflowContent(cfg *project.Config) ([]byte, error) {
	a := tooling.New(cfg)
	pkg := cfg.Tooling.Packaging

	steps := []step{
		{Uses: "actions/checkout@v4"},
		{
			Name: "Set up Python ${{ matrix.python-version }}",
			Uses: "actions/setup-python@v5",
			With: map[string]string{"python-version": "${{ matrix.python-version }}"},
		},
	}

	if pkg == "uv" {
		steps = append(steps, step{Name: "Install uv", Uses: "astral-sh/setup-uv@v5"})
	} else {
		steps = append(steps, step{Name: "Install " + pkg, Run: "pip install " + pkg})
	}

	install, err := a.Command(tooling.Packaging, "sync")
	if err != nil {
		return nil, err
	}

	steps = append(steps, step{Name: "Install dependencies", Run: strings.Join(install, " ")})

	for _, name := range cfg.Checks.Pipeline {
		key, args := ciStep(name)

		argv, err := a.Command(key, args...)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step{Name: "Run " + name, Run: strings.Join(argv, " ")})
	}

	doc := workflow{
		Name: "CI",
		On: workflowOn{
			Push:        branches{Branches: []string{"main"}},
			PullRequest: branches{Branches: []string{"main"}},
		},
		Jobs: map[string]job{
			"checks": {
				RunsOn: "ubuntu-latest",
				Strategy: strategy{
					FailFast: false,
					Matrix:   matrix{PythonVersion: cfg.CI.Python},
				},
				Steps: steps,
			},
		},
	}

	return encode(doc)
}

func ciStep(name string) (tooling.ToolKey, []string) {
	switch name {
	case project.StepLint:
		return tooling.Linting, []string{"check", "."}
	case project.StepFormat:
		return tooling.Formatting, []string{"format", "--check", "."}
	case project.StepTest:
		return tooling.Testing, nil
	default:
		return tooling.Typing, nil
	}
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(generatedHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	return buf.Bytes(), nil
}
