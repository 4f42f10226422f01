package emitter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/ivorycirrus/aws-pdk/internal/model"
	"github.com/ivorycirrus/aws-pdk/internal/naming"
)

const templateExt = ".tmpl"

// ErrTemplateDirectoryNotFound reports that none of the candidate template
// directories exist.
var ErrTemplateDirectoryNotFound = errors.New("emitter: template directory not found")

// FindTemplateDir returns the first existing directory among candidates.
func FindTemplateDir(candidates ...string) (string, error) {
	tried := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		tried = append(tried, dir)
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w (tried: %s)", ErrTemplateDirectoryNotFound, strings.Join(tried, ", "))
}

// ListTemplates returns the template file names directly under dir, sorted.
func ListTemplates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("emitter: read template directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

var templateFuncs = template.FuncMap{
	"lower":  strings.ToLower,
	"upper":  strings.ToUpper,
	"snake":  naming.SnakeCase,
	"camel":  naming.CamelCase,
	"pascal": naming.PascalCase,
}

// RenderTemplate executes the Go text/template at path with the compiled
// render data. This is the default RenderFunc.
func RenderTemplate(path string, data *model.RenderData) (string, error) {
	tpl, err := template.New(filepath.Base(path)).Funcs(templateFuncs).ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("emitter: parse template %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("emitter: render template %s: %w", path, err)
	}
	return buf.String(), nil
}
