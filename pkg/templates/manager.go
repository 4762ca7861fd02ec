package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	GetTemplate(name string) *template.Template
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager manages templates from a directory
type Manager struct {
	templates *template.Template
	directory string
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"join":  strings.Join,
		"upper": strings.ToUpper,
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return singular
			}
			return plural
		},
		"decimal": func(val interface{}) string {
			if s, ok := val.(fmt.Stringer); ok {
				return s.String()
			}
			return fmt.Sprint(val)
		},
		"printf": fmt.Sprintf,
	}
}

// NewManager creates and loads all templates from directory (including all subdirectories)
func NewManager(templatesDir string) (*Manager, error) {
	tmpl := template.New("root").Funcs(GetDefaultFuncMap())

	// Load templates from root directory (if any exist)
	pattern := filepath.Join(templatesDir, "*.tmpl")
	if result, err := tmpl.ParseGlob(pattern); err == nil && result != nil {
		tmpl = result
	}

	// Load from all subdirectories (one level deep: templates/*/*.tmpl)
	subPattern := filepath.Join(templatesDir, "*", "*.tmpl")
	if result, err := tmpl.ParseGlob(subPattern); err == nil && result != nil {
		tmpl = result
	}

	// Load even deeper nesting (templates/*/*/*.tmpl)
	deepPattern := filepath.Join(templatesDir, "*", "*", "*.tmpl")
	if result, err := tmpl.ParseGlob(deepPattern); err == nil && result != nil {
		tmpl = result
	}

	if tmpl == nil {
		return nil, fmt.Errorf("failed to initialize templates")
	}

	templateCount := len(tmpl.Templates())
	if templateCount <= 1 { // "root" template doesn't count
		return nil, fmt.Errorf("no templates found in %s or subdirectories", templatesDir)
	}

	logger.Info("templates loaded recursively",
		zap.Int("count", templateCount),
		zap.String("directory", templatesDir),
	)

	return &Manager{
		templates: tmpl,
		directory: templatesDir,
	}, nil
}

// NewManagerFS loads templates matching patterns from an embedded filesystem
func NewManagerFS(fsys fs.FS, patterns ...string) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}

	logger.Debug("embedded templates loaded",
		zap.Int("count", len(tmpl.Templates())),
		zap.Strings("patterns", patterns),
	)

	return &Manager{
		templates: tmpl,
		directory: "embed",
	}, nil
}

// Require fails when any named template is missing
func (m *Manager) Require(names ...string) error {
	for _, name := range names {
		if m.templates.Lookup(name) == nil {
			return fmt.Errorf("required template not found: %s", name)
		}
	}
	return nil
}

// GetTemplate returns template by name
func (m *Manager) GetTemplate(name string) *template.Template {
	return m.templates.Lookup(name)
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data interface{}) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists checks if template exists
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}

// GetDirectory returns templates directory path
func (m *Manager) GetDirectory() string {
	return m.directory
}
