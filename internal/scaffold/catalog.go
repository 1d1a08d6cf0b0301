package scaffold

// Built-in profiles and templates.
const (
	ProfileAPI = "api"
	ProfileLib = "lib"

	TemplateFastAPI     = "fastapi"
	TemplateFlask       = "flask"
	TemplateBaselineLib = "baseline-lib"
)

// reservedProfiles are announced but not scaffoldable yet.
var reservedProfiles = []string{"cli", "web", "game"}

// DefaultRegistry returns a registry pre-populated with the built-in
// catalog: api (fastapi by default, flask) and lib (baseline-lib), with the
// cli, web and game profiles reserved.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ProfileAPI, TemplateFastAPI, TemplateGenerator(TemplateFastAPI), true)
	r.Register(ProfileAPI, TemplateFlask, TemplateGenerator(TemplateFlask), false)
	r.Register(ProfileLib, TemplateBaselineLib, TemplateGenerator(TemplateBaselineLib), true)

	for _, p := range reservedProfiles {
		r.Reserve(p)
	}

	return r
}
