// Package contenttype holds the registry of post templates a campaign can draw from,
// template selection, and variable resolution.
package contenttype

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var embeddedTemplates []byte

// Key identifies a content-type template.
type Key string

// Template is one entry of the registry.
type Template struct {
	Key               Key               `yaml:"key"`
	Name              string            `yaml:"name"`
	Description       string            `yaml:"description"`
	Prompt            string            `yaml:"prompt"`
	RequiredVariables []string          `yaml:"required_variables"`
	Defaults          map[string]string `yaml:"defaults"`

	tmpl *template.Template
}

// Render executes the prompt with the given variables.
func (t *Template) Render(vars map[string]string) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Key, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// Registry is an immutable, ordered table of templates.
type Registry struct {
	order    []Key
	byKey    map[Key]*Template
	defaults map[string]string
}

type registryFile struct {
	Defaults  map[string]string `yaml:"defaults"`
	Templates []*Template       `yaml:"templates"`
}

// Load parses a registry from YAML.
func Load(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse content types: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, errors.New("content type registry is empty")
	}

	reg := &Registry{
		order:    make([]Key, 0, len(file.Templates)),
		byKey:    make(map[Key]*Template, len(file.Templates)),
		defaults: file.Defaults,
	}
	for _, t := range file.Templates {
		if err := reg.add(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) add(t *Template) error {
	t.Key = Key(strings.ToLower(strings.TrimSpace(string(t.Key))))
	if t.Key == "" {
		return errors.New("content type key is required")
	}
	if _, dup := r.byKey[t.Key]; dup {
		return fmt.Errorf("duplicate content type %q", t.Key)
	}
	if strings.TrimSpace(t.Prompt) == "" {
		return fmt.Errorf("content type %q has no prompt", t.Key)
	}
	tmpl, err := template.New(string(t.Key)).Option("missingkey=error").Parse(t.Prompt)
	if err != nil {
		return fmt.Errorf("parse %q prompt: %w", t.Key, err)
	}
	t.tmpl = tmpl
	if t.Defaults == nil {
		t.Defaults = map[string]string{}
	}
	r.order = append(r.order, t.Key)
	r.byKey[t.Key] = t
	return nil
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Load(embeddedTemplates)
})

// Default returns the built-in registry of fifteen templates.
func Default() *Registry {
	reg, err := defaultRegistry()
	if err != nil {
		//nolint:forbidigo // the embedded registry is compiled in; a parse failure is a build defect.
		panic(err)
	}
	return reg
}

// Get looks up a template by key (case-insensitive).
func (r *Registry) Get(key string) (*Template, bool) {
	t, ok := r.byKey[Key(strings.ToLower(strings.TrimSpace(key)))]
	return t, ok
}

// Keys returns template keys in registry order.
func (r *Registry) Keys() []Key {
	return append([]Key(nil), r.order...)
}

// All returns templates in registry order.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Len returns the number of templates.
func (r *Registry) Len() int { return len(r.order) }

// Defaults returns the registry-wide default variables.
func (r *Registry) Defaults() map[string]string {
	return maps.Clone(r.defaults)
}

// UnknownKeys returns the entries of keys that are not in the registry.
func (r *Registry) UnknownKeys(keys []string) []string {
	var unknown []string
	for _, k := range keys {
		if _, ok := r.Get(k); !ok {
			unknown = append(unknown, k)
		}
	}
	return unknown
}
