package driven

import "github.com/recallhq/recall/internal/core/domain"

// Loader extracts zero or more documents from a filesystem path.
// Format-specific parsing lives behind this boundary; the core only
// requires the contract.
type Loader interface {
	// Suffixes returns the lower-case file suffixes this loader handles.
	Suffixes() []string

	// MIME returns the content kind produced by this loader.
	MIME() string

	// Load reads the file and returns its documents. A mailbox file
	// yields one document per message.
	Load(path string) ([]domain.LoadedDocument, error)
}

// LoaderRegistry selects the loader for a path by suffix.
type LoaderRegistry interface {
	// Load dispatches to the matching loader, or returns
	// domain.ErrUnsupportedType when no loader claims the suffix.
	Load(path string) ([]domain.LoadedDocument, error)
}
