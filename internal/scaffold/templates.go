package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultPython is the minimum Python version written into new projects.
const DefaultPython = "3.12"

const (
	templateSuffix     = ".tmpl"
	packagePlaceholder = "__package__"
	commonTemplateDir  = "common"
)

//go:embed all:templates
var templateFS embed.FS

// TemplateGenerator returns a Generator rendering the embedded template
// directory name together with the shared files under templates/common.
// Files in the named directory win over common files with the same path.
func TemplateGenerator(name string) Generator {
	return func(ctx Context) (Files, error) {
		files := make(Files)

		for _, dir := range []string{commonTemplateDir, name} {
			if err := renderDir(dir, ctx, files); err != nil {
				return nil, err
			}
		}

		return files, nil
	}
}

func renderDir(dir string, ctx Context, into Files) error {
	root := path.Join("templates", dir)

	return fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("reading template %s: %w", dir, err)
		}

		if d.IsDir() || !strings.HasSuffix(p, templateSuffix) {
			return nil
		}

		src, err := templateFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(p, root+"/"), templateSuffix)
		rel = strings.ReplaceAll(rel, packagePlaceholder, ctx.PackageName)

		out, err := render(p, string(src), ctx)
		if err != nil {
			return err
		}

		into[rel] = out

		return nil
	})
}

func render(name, src string, ctx Context) (string, error) {
	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}

	return buf.String(), nil
}

// EmbeddedTemplates lists the template directories shipped with the binary,
// excluding the shared common directory.
func EmbeddedTemplates() ([]string, error) {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	var names []string

	for _, e := range entries {
		if e.IsDir() && e.Name() != commonTemplateDir {
			names = append(names, e.Name())
		}
	}

	return names, nil
}
