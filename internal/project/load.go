package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"

	"github.com/hupe1980/pyqck/internal/scaffold"
)

var pythonVersionRe = regexp.MustCompile(`^\d+\.\d+$`)

// Load reads fileName from rootDir. A missing file yields the defaults; any
// other problem is returned as a *ConfigError.
func Load(rootDir, fileName string) (*Config, error) {
	if fileName == "" {
		fileName = FileName
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Could not resolve project directory `%s`.", rootDir),
			Hint:    "Pass an existing directory with --dir.",
			Err:     err,
		}
	}

	path := filepath.Join(abs, fileName)

	data, err := os.ReadFile(path) //nolint:gosec // path is the project's own config file
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default(abs)
		cfg.FilePath = path

		return cfg, nil
	}

	if err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Could not read `%s`.", fileName),
			Hint:    "Check file permissions and retry.",
			Err:     err,
		}
	}

	cfg, err := Parse(data, fileName)
	if err != nil {
		return nil, err
	}

	cfg.RootDir = abs
	cfg.FilePath = path
	cfg.Exists = true

	return cfg, nil
}

// Parse decodes and validates pyquick.toml content. fileName is only used in
// error messages.
func Parse(data []byte, fileName string) (*Config, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		msg := fmt.Sprintf("Invalid TOML in `%s`: %v.", fileName, err)

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			msg = fmt.Sprintf("Invalid TOML in `%s` at line %d, column %d: %v.", fileName, row, col, err)
		}

		return nil, &ConfigError{Message: msg, Hint: "Fix TOML syntax errors and retry.", Err: err}
	}

	if doc == nil {
		doc = map[string]any{}
	}

	if err := allowKeys(doc, "top-level", []string{"project", "tooling", "dev", "run", "checks", "features", "ci"}); err != nil {
		return nil, err
	}

	cfg := Default("")

	steps := []func(map[string]any, *Config) error{
		parseProject,
		parseTooling,
		parseDev,
		parseRun,
		parseChecks,
		parseFeatures,
		parseCI,
	}

	for _, step := range steps {
		if err := step(doc, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func parseProject(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "project")
	if err != nil {
		return err
	}

	if err := t.allow("name", "profile", "template", "python"); err != nil {
		return err
	}

	p := &cfg.Project

	if p.Name, err = t.str("name", p.Name); err != nil {
		return err
	}

	if p.Profile, err = t.str("profile", p.Profile); err != nil {
		return err
	}

	template, err := t.str("template", "")
	if err != nil {
		return err
	}

	p.Template, err = scaffold.DefaultRegistry().Resolve(p.Profile, template)
	if err != nil {
		var lerr *scaffold.LookupError
		if errors.As(err, &lerr) {
			return &ConfigError{Message: "`[project]`: " + lerr.Message, Hint: lerr.Hint, Err: err}
		}

		return err
	}

	if p.Python, err = t.str("python", p.Python); err != nil {
		return err
	}

	return checkPython(t.key("python"), p.Python)
}

func parseTooling(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "tooling")
	if err != nil {
		return err
	}

	if err := t.allow("packaging", "linting", "formatting", "testing", "typing", "running"); err != nil {
		return err
	}

	running := cfg.Tooling.Running
	if cfg.Project.Template == scaffold.TemplateFlask {
		running = "flask"
	}

	tl := &cfg.Tooling
	fields := []struct {
		key string
		dst *string
		def string
	}{
		{"packaging", &tl.Packaging, tl.Packaging},
		{"linting", &tl.Linting, tl.Linting},
		{"formatting", &tl.Formatting, tl.Formatting},
		{"testing", &tl.Testing, tl.Testing},
		{"typing", &tl.Typing, tl.Typing},
		{"running", &tl.Running, running},
	}

	for _, f := range fields {
		v, err := t.str(f.key, f.def)
		if err != nil {
			return err
		}

		if v == "" {
			return configErr(t.key(f.key)+" must not be empty.", fmt.Sprintf("Set `%s` to an executable name.", f.key))
		}

		*f.dst = v
	}

	return nil
}

func parseDev(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "dev")
	if err != nil {
		return err
	}

	if err := t.allow("reload", "watch", "debounce_ms", "checks_mode", "fallback_threshold"); err != nil {
		return err
	}

	d := &cfg.Dev

	if d.Reload, err = t.boolean("reload", d.Reload); err != nil {
		return err
	}

	if d.DebounceMS, err = t.integer("debounce_ms", d.DebounceMS); err != nil {
		return err
	}

	if d.DebounceMS < 0 {
		return configErr(t.key("debounce_ms")+" must be >= 0.", "Set `debounce_ms` to a non-negative integer.")
	}

	if d.Watch, err = t.strings("watch", d.Watch); err != nil {
		return err
	}

	if len(d.Watch) == 0 {
		return configErr(t.key("watch")+" must contain at least one path.", "Set `watch = [\"src\"]` or another non-empty list.")
	}

	if d.ChecksMode, err = t.str("checks_mode", d.ChecksMode); err != nil {
		return err
	}

	if d.ChecksMode != ChecksModeIncremental && d.ChecksMode != ChecksModeFull {
		return configErr(
			t.key("checks_mode")+" must be `incremental` or `full`.",
			"Use `checks_mode = \"incremental\"` to check only changed files.",
		)
	}

	if d.FallbackThreshold, err = t.integer("fallback_threshold", d.FallbackThreshold); err != nil {
		return err
	}

	if d.FallbackThreshold < 1 {
		return configErr(t.key("fallback_threshold")+" must be >= 1.", "Set `fallback_threshold` to a positive integer.")
	}

	return nil
}

func parseRun(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "run")
	if err != nil {
		return err
	}

	if err := t.allow("app", "host", "port"); err != nil {
		return err
	}

	r := &cfg.Run

	if r.App, err = t.str("app", cfg.Package()+".main:app"); err != nil {
		return err
	}

	if r.Host, err = t.str("host", r.Host); err != nil {
		return err
	}

	if r.Port, err = t.integer("port", r.Port); err != nil {
		return err
	}

	if r.Port < 1 || r.Port > 65535 {
		return configErr(t.key("port")+" must be between 1 and 65535.", "Set `port` to a valid TCP port.")
	}

	return nil
}

func parseChecks(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "checks")
	if err != nil {
		return err
	}

	if err := t.allow("pipeline", "stop_on_first_failure"); err != nil {
		return err
	}

	c := &cfg.Checks

	if c.Pipeline, err = t.strings("pipeline", c.Pipeline); err != nil {
		return err
	}

	var unsupported []string

	for _, step := range c.Pipeline {
		switch step {
		case StepLint, StepType, StepTest, StepFormat:
		default:
			unsupported = append(unsupported, step)
		}
	}

	if len(unsupported) > 0 {
		return configErr(
			fmt.Sprintf("%s includes unsupported step(s): %s.", t.key("pipeline"), quoteList(unsupported)),
			"Use only `lint`, `type`, `test` and `format`.",
		)
	}

	seen := make(map[string]struct{}, len(c.Pipeline))

	for _, step := range c.Pipeline {
		if _, dup := seen[step]; dup {
			return configErr(t.key("pipeline")+" must not contain duplicates.", "Remove repeated steps and retry.")
		}

		seen[step] = struct{}{}
	}

	if c.StopOnFirstFailure, err = t.boolean("stop_on_first_failure", c.StopOnFirstFailure); err != nil {
		return err
	}

	return nil
}

func parseFeatures(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "features")
	if err != nil {
		return err
	}

	if err := t.allow("pre_commit", "ci"); err != nil {
		return err
	}

	f := &cfg.Features

	if f.PreCommit, err = t.boolean("pre_commit", f.PreCommit); err != nil {
		return err
	}

	f.CI, err = t.boolean("ci", f.CI)

	return err
}

func parseCI(doc map[string]any, cfg *Config) error {
	t, err := section(doc, "ci")
	if err != nil {
		return err
	}

	if err := t.allow("provider", "python"); err != nil {
		return err
	}

	c := &cfg.CI

	if c.Provider, err = t.str("provider", c.Provider); err != nil {
		return err
	}

	if c.Python, err = t.strings("python", []string{cfg.Project.Python}); err != nil {
		return err
	}

	if len(c.Python) == 0 {
		return configErr(t.key("python")+" must contain at least one version.", "Set `python = [\"3.12\"]`.")
	}

	for _, v := range c.Python {
		if err := checkPython(t.key("python"), v); err != nil {
			return err
		}
	}

	return nil
}

func checkPython(key, version string) error {
	hint := fmt.Sprintf("Use a `MAJOR.MINOR` version such as `%s`.", scaffold.DefaultPython)

	if !pythonVersionRe.MatchString(version) {
		return configErr(fmt.Sprintf("%s has invalid Python version `%s`.", key, version), hint)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("%s has invalid Python version `%s`.", key, version), Hint: hint, Err: err}
	}

	if v.LessThan(semver.MustParse(MinPython)) {
		return configErr(
			fmt.Sprintf("%s must be %s or newer, got `%s`.", key, MinPython, version),
			hint,
		)
	}

	return nil
}

// ValidatePython checks a MAJOR.MINOR Python version supplied outside
// pyquick.toml, such as on the command line.
func ValidatePython(version string) error {
	return checkPython("`--python`", version)
}
