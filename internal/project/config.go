// Package project loads and validates pyquick.toml, the per-project settings
// file that drives scaffolding, tool adapters and the dev loop.
package project

import (
	"path/filepath"

	"github.com/hupe1980/pyqck/internal/scaffold"
)

// FileName is the project config file looked up in the project root.
const FileName = "pyquick.toml"

// Check steps accepted in [checks].pipeline.
const (
	StepLint   = "lint"
	StepType   = "type"
	StepTest   = "test"
	StepFormat = "format"
)

// Dev loop check modes.
const (
	ChecksModeIncremental = "incremental"
	ChecksModeFull        = "full"
)

// MinPython is the oldest Python release projects may target.
const MinPython = "3.9"

// Config is a fully validated pyquick.toml.
type Config struct {
	Project  ProjectSection  `json:"project"`
	Tooling  ToolingSection  `json:"tooling"`
	Dev      DevSection      `json:"dev"`
	Run      RunSection      `json:"run"`
	Checks   ChecksSection   `json:"checks"`
	Features FeaturesSection `json:"features"`
	CI       CISection       `json:"ci"`

	// RootDir is the absolute project root.
	RootDir string `json:"-"`
	// FilePath is where the config was (or would have been) read from.
	FilePath string `json:"-"`
	// Exists reports whether FilePath was present on disk.
	Exists bool `json:"-"`
}

// ProjectSection is [project].
type ProjectSection struct {
	Name     string `json:"name"`
	Profile  string `json:"profile"`
	Template string `json:"template"`
	Python   string `json:"python"`
}

// ToolingSection is [tooling]. Each value is an executable name.
type ToolingSection struct {
	Packaging  string `json:"packaging"`
	Linting    string `json:"linting"`
	Formatting string `json:"formatting"`
	Testing    string `json:"testing"`
	Typing     string `json:"typing"`
	Running    string `json:"running"`
}

// DevSection is [dev].
type DevSection struct {
	Reload            bool     `json:"reload"`
	Watch             []string `json:"watch"`
	DebounceMS        int      `json:"debounce_ms"`
	ChecksMode        string   `json:"checks_mode"`
	FallbackThreshold int      `json:"fallback_threshold"`
}

// RunSection is [run].
type RunSection struct {
	App  string `json:"app"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ChecksSection is [checks].
type ChecksSection struct {
	Pipeline           []string `json:"pipeline"`
	StopOnFirstFailure bool     `json:"stop_on_first_failure"`
}

// FeaturesSection is [features]; enabled features are materialised by sync.
type FeaturesSection struct {
	PreCommit bool `json:"pre_commit"`
	CI        bool `json:"ci"`
}

// CISection is [ci].
type CISection struct {
	Provider string   `json:"provider"`
	Python   []string `json:"python"`
}

// Default returns the configuration used when no pyquick.toml exists.
func Default(rootDir string) *Config {
	cfg := &Config{
		Project: ProjectSection{
			Name:     "myapi",
			Profile:  scaffold.ProfileAPI,
			Template: scaffold.TemplateFastAPI,
			Python:   scaffold.DefaultPython,
		},
		Tooling: ToolingSection{
			Packaging:  "uv",
			Linting:    "ruff",
			Formatting: "ruff",
			Testing:    "pytest",
			Typing:     "pyright",
			Running:    "uvicorn",
		},
		Dev: DevSection{
			Reload:            true,
			Watch:             []string{"src", "tests"},
			DebounceMS:        200,
			ChecksMode:        ChecksModeIncremental,
			FallbackThreshold: 8,
		},
		Run: RunSection{
			App:  "myapi.main:app",
			Host: "127.0.0.1",
			Port: 8000,
		},
		Checks: ChecksSection{
			Pipeline:           []string{StepLint, StepType, StepTest},
			StopOnFirstFailure: true,
		},
		CI: CISection{
			Provider: "github",
			Python:   []string{scaffold.DefaultPython},
		},
		RootDir:  rootDir,
		FilePath: filepath.Join(rootDir, FileName),
	}

	return cfg
}

// Package is the importable Python package name derived from the project name.
func (c *Config) Package() string {
	return scaffold.NormalizePackageName(c.Project.Name)
}

// IsAPI reports whether the project runs a web server.
func (c *Config) IsAPI() bool {
	return c.Project.Profile == scaffold.ProfileAPI
}
