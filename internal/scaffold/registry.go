package scaffold

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Files maps slash-separated paths, relative to the project root, to file
// contents.
type Files map[string]string

// Paths returns the file paths in sorted order.
func (f Files) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Request describes the project to generate.
type Request struct {
	// ProjectName is the user-facing project name (also the directory name).
	ProjectName string

	// Profile selects the project kind, e.g. "api" or "lib".
	Profile string

	// Template selects a template within the profile. Empty means the
	// profile's default template.
	Template string

	// Python is the minimum Python version (MAJOR.MINOR). Empty means
	// DefaultPython.
	Python string
}

// Context is the data handed to generators.
type Context struct {
	ProjectName string
	PackageName string
	Profile     string
	Template    string
	Python      string
}

// Generator produces the file tree for one template.
type Generator func(ctx Context) (Files, error)

// Selection is the result of resolving and running a template.
type Selection struct {
	Profile  string
	Template string
	Files    Files
}

type registration struct {
	generator Generator
	isDefault bool
}

// Registry maps profiles to their templates. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]map[string]registration
	reserved  map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]map[string]registration),
		reserved:  make(map[string]struct{}),
	}
}

// Register adds a template under profile. Registering a default template
// clears the default flag on the profile's other templates. Registering a
// template un-reserves the profile.
func (r *Registry) Register(profile, template string, gen Generator, isDefault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.templates[profile]
	if !ok {
		byName = make(map[string]registration)
		r.templates[profile] = byName
	}

	if isDefault {
		for name, reg := range byName {
			reg.isDefault = false
			byName[name] = reg
		}
	}

	byName[template] = registration{generator: gen, isDefault: isDefault}

	delete(r.reserved, profile)
}

// Reserve marks profile as known but not yet scaffoldable. It is a no-op when
// the profile already has templates.
func (r *Registry) Reserve(profile string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[profile]; ok {
		return
	}

	r.reserved[profile] = struct{}{}
}

// Profiles returns the sorted scaffoldable profiles.
func (r *Registry) Profiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.templates)
}

// ReservedProfiles returns the sorted reserved profiles.
func (r *Registry) ReservedProfiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.reserved)
}

// Templates returns the sorted templates registered for profile.
func (r *Registry) Templates(profile string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sortedKeys(r.templates[profile])
}

// DefaultTemplate returns the default template of profile.
func (r *Registry) DefaultTemplate(profile string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultTemplateLocked(profile)
}

// Resolve validates a (profile, template) pair without generating files and
// returns the effective template name.
func (r *Registry) Resolve(profile, template string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, name, err := r.resolveLocked(profile, template)

	return name, err
}

// Build resolves the request's template and runs its generator.
func (r *Registry) Build(req Request) (*Selection, error) {
	r.mu.RLock()
	reg, name, err := r.resolveLocked(req.Profile, req.Template)
	r.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	python := req.Python
	if python == "" {
		python = DefaultPython
	}

	files, err := reg.generator(Context{
		ProjectName: req.ProjectName,
		PackageName: NormalizePackageName(req.ProjectName),
		Profile:     req.Profile,
		Template:    name,
		Python:      python,
	})
	if err != nil {
		return nil, fmt.Errorf("generating %s/%s: %w", req.Profile, name, err)
	}

	return &Selection{Profile: req.Profile, Template: name, Files: files}, nil
}

func (r *Registry) resolveLocked(profile, template string) (registration, string, error) {
	if _, ok := r.reserved[profile]; ok {
		return registration{}, "", &LookupError{
			Kind:    ReservedProfile,
			Message: fmt.Sprintf("Profile `%s` is reserved and not scaffoldable yet.", profile),
			Hint:    fmt.Sprintf("Use one of: %s.", strings.Join(sortedKeys(r.templates), ", ")),
		}
	}

	byName, ok := r.templates[profile]
	if !ok {
		all := append(sortedKeys(r.templates), sortedKeys(r.reserved)...)
		sort.Strings(all)

		return registration{}, "", &LookupError{
			Kind:    UnknownProfile,
			Message: fmt.Sprintf("Unsupported profile `%s`.", profile),
			Hint:    fmt.Sprintf("Use one of: %s.", strings.Join(all, ", ")),
		}
	}

	name := template
	if name == "" {
		def, found := r.defaultTemplateLocked(profile)
		if !found {
			return registration{}, "", &LookupError{
				Kind:    NoDefaultTemplate,
				Message: fmt.Sprintf("No default template configured for profile `%s`.", profile),
				Hint:    "Pass --template explicitly or register a default template for this profile.",
			}
		}

		name = def
	}

	reg, ok := byName[name]
	if ok {
		return reg, name, nil
	}

	for other, templates := range r.templates {
		if _, found := templates[name]; found && other != profile {
			return registration{}, "", &LookupError{
				Kind:    IncompatibleTemplate,
				Message: fmt.Sprintf("Template `%s` is not compatible with profile `%s`.", name, profile),
				Hint:    "Choose a template from the selected profile's template catalog.",
			}
		}
	}

	return registration{}, "", &LookupError{
		Kind:    UnknownTemplate,
		Message: fmt.Sprintf("Unsupported template `%s` for profile `%s`.", name, profile),
		Hint:    fmt.Sprintf("Use one of: %s for profile `%s`.", strings.Join(sortedKeys(byName), ", "), profile),
	}
}

func (r *Registry) defaultTemplateLocked(profile string) (string, bool) {
	for name, reg := range r.templates[profile] {
		if reg.isDefault {
			return name, true
		}
	}

	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
