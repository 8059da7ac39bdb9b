package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/recallhq/recall/internal/core/domain"
	"github.com/recallhq/recall/internal/core/ports/driven"
)

// Registry selects the loader for a path by file suffix.
type Registry struct {
	loaders []driven.Loader
}

// NewRegistry creates a registry with the built-in loaders.
func NewRegistry() *Registry {
	return &Registry{
		loaders: []driven.Loader{
			&Markdown{},
			&Plaintext{},
			&Mbox{},
		},
	}
}

// Register appends a loader; later registrations never shadow built-ins.
func (r *Registry) Register(loader driven.Loader) {
	r.loaders = append(r.loaders, loader)
}

// Supported reports whether some loader claims the path's suffix.
func (r *Registry) Supported(path string) bool {
	return r.loaderFor(path) != nil
}

// Load dispatches to the matching loader.
func (r *Registry) Load(path string) ([]domain.LoadedDocument, error) {
	loader := r.loaderFor(path)
	if loader == nil {
		return nil, fmt.Errorf("no loader for suffix %q: %w", filepath.Ext(path), domain.ErrUnsupportedType)
	}
	return loader.Load(path)
}

func (r *Registry) loaderFor(path string) driven.Loader {
	suffix := strings.ToLower(filepath.Ext(path))
	for _, loader := range r.loaders {
		for _, s := range loader.Suffixes() {
			if s == suffix {
				return loader
			}
		}
	}
	return nil
}
