package dashboard

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"sync"
	"testing/fstest"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// TemplateProvider abstracts template loading and execution.
// Production uses EmbeddedTemplateProvider; tests use MockTemplateProvider.
type TemplateProvider interface {
	// GetTemplate returns a parsed template by name.
	GetTemplate(name string) (*template.Template, error)
	// ExecuteTemplate executes a template with the given data.
	ExecuteTemplate(w io.Writer, name string, data interface{}) error
}

// EmbeddedTemplateProvider loads templates from an embedded filesystem and
// caches them after the first parse.
type EmbeddedTemplateProvider struct {
	fs      fs.FS
	baseDir string

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewEmbeddedTemplateProvider creates a provider over fsys.
func NewEmbeddedTemplateProvider(fsys fs.FS, baseDir string) *EmbeddedTemplateProvider {
	return &EmbeddedTemplateProvider{
		fs:      fsys,
		baseDir: baseDir,
		cache:   make(map[string]*template.Template),
	}
}

// DefaultTemplates returns the provider for the page templates compiled into
// the binary.
func DefaultTemplates() *EmbeddedTemplateProvider {
	return NewEmbeddedTemplateProvider(templateFS, "templates")
}

// GetTemplate parses and caches a template.
func (p *EmbeddedTemplateProvider) GetTemplate(name string) (*template.Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.cache[name]; ok {
		return t, nil
	}

	path := name
	if p.baseDir != "" {
		path = p.baseDir + "/" + name
	}
	content, err := fs.ReadFile(p.fs, path)
	if err != nil {
		return nil, err
	}
	t, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, err
	}
	p.cache[name] = t
	return t, nil
}

// ExecuteTemplate loads and executes a template.
func (p *EmbeddedTemplateProvider) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	t, err := p.GetTemplate(name)
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

// MockTemplateProvider provides templates for testing.
type MockTemplateProvider struct {
	Templates    map[string]string
	ExecuteError error
	GetError     error

	mu           sync.Mutex
	ExecuteCalls []ExecuteCall
}

// ExecuteCall records one ExecuteTemplate invocation.
type ExecuteCall struct {
	Name string
	Data interface{}
}

// NewMockTemplateProvider creates a mock provider with predefined templates.
func NewMockTemplateProvider(templates map[string]string) *MockTemplateProvider {
	return &MockTemplateProvider{Templates: templates}
}

// GetTemplate parses the named mock template.
func (m *MockTemplateProvider) GetTemplate(name string) (*template.Template, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	content, ok := m.Templates[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return template.New(name).Parse(content)
}

// ExecuteTemplate records the call and executes the template.
func (m *MockTemplateProvider) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	m.mu.Lock()
	m.ExecuteCalls = append(m.ExecuteCalls, ExecuteCall{Name: name, Data: data})
	m.mu.Unlock()

	if m.ExecuteError != nil {
		return m.ExecuteError
	}
	t, err := m.GetTemplate(name)
	if err != nil {
		return err
	}
	return t.Execute(w, data)
}

// Calls returns a copy of the recorded calls.
func (m *MockTemplateProvider) Calls() []ExecuteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecuteCall(nil), m.ExecuteCalls...)
}

// AssetProvider abstracts the static files served under /static/.
type AssetProvider interface {
	// FS returns the asset tree rooted at the static directory.
	FS() fs.FS
}

// EmbeddedAssetProvider serves assets from an embedded filesystem.
type EmbeddedAssetProvider struct {
	root fs.FS
}

// NewEmbeddedAssetProvider roots fsys at baseDir.
func NewEmbeddedAssetProvider(fsys fs.FS, baseDir string) (*EmbeddedAssetProvider, error) {
	root := fsys
	if baseDir != "" {
		sub, err := fs.Sub(fsys, baseDir)
		if err != nil {
			return nil, err
		}
		root = sub
	}
	return &EmbeddedAssetProvider{root: root}, nil
}

// DefaultAssets returns the stylesheet and script compiled into the binary.
func DefaultAssets() *EmbeddedAssetProvider {
	p, err := NewEmbeddedAssetProvider(staticFS, "static")
	if err != nil {
		panic(err) // static/ is embedded, so Sub cannot fail
	}
	return p
}

// FS returns the asset tree.
func (p *EmbeddedAssetProvider) FS() fs.FS { return p.root }

// MockAssetProvider provides assets for testing.
type MockAssetProvider struct {
	Files fstest.MapFS
}

// NewMockAssetProvider creates a mock provider with predefined files.
func NewMockAssetProvider(files map[string][]byte) *MockAssetProvider {
	m := &MockAssetProvider{Files: fstest.MapFS{}}
	for name, data := range files {
		m.Files[name] = &fstest.MapFile{Data: data}
	}
	return m
}

// FS returns the mock files.
func (m *MockAssetProvider) FS() fs.FS { return m.Files }
