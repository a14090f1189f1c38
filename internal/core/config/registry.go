package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

const (
	KindCSW = "csw"
	KindSOS = "sos"
)

var ErrUnknownService = errors.New("unknown service")

// ServiceEntry is one named upstream in the registry file.
type ServiceEntry struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Kind     string `yaml:"kind" json:"kind" validate:"required,oneof=csw sos"`
	URL      string `yaml:"url" json:"url" validate:"required,http_url"`
	Provider string `yaml:"provider" json:"provider,omitempty" validate:"omitempty,oneof=default pycsw geoserver"`
}

// Dialect resolves the entry's provider tag.
func (e ServiceEntry) Dialect() model.Provider {
	p, err := model.ParseProvider(e.Provider)
	if err != nil {
		return model.ProviderDefault
	}
	return p
}

type registryFile struct {
	Services []ServiceEntry `yaml:"services" validate:"dive"`
}

// Registry maps service names to upstream endpoints.
type Registry struct {
	byName map[string]ServiceEntry
}

func NewRegistry(entries ...ServiceEntry) (*Registry, error) {
	r := &Registry{byName: make(map[string]ServiceEntry, len(entries))}
	for _, e := range entries {
		e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
		e.Provider = strings.ToLower(strings.TrimSpace(e.Provider))
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("service %q: %w", e.Name, err)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate service %q", e.Name)
		}
		r.byName[e.Name] = e
	}
	return r, nil
}

// LoadRegistry reads a YAML registry. An empty path yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(b)
}

func ParseRegistry(b []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return NewRegistry(f.Services...)
}

// Lookup returns the entry for name if it exists and has the given kind.
func (r *Registry) Lookup(name, kind string) (ServiceEntry, error) {
	e, ok := r.byName[name]
	if !ok || e.Kind != kind {
		return ServiceEntry{}, fmt.Errorf("%w: %s service %q", ErrUnknownService, kind, name)
	}
	return e, nil
}

// Entries lists the registry sorted by name.
func (r *Registry) Entries() []ServiceEntry {
	out := make([]ServiceEntry, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
