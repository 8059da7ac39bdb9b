// Package secrets will hold credential storage for authenticated
// sources. Local files need no credentials, so the store currently
// rejects all operations.
package secrets

import (
	"fmt"

	"github.com/recallhq/recall/internal/core/domain"
)

// Store persists source credentials.
type Store struct{}

// NewStore creates a credential store.
func NewStore() *Store {
	return &Store{}
}

// Put stores a credential for a source.
func (s *Store) Put(sourceID, token string) error {
	return fmt.Errorf("%w: credential storage", domain.ErrNotImplemented)
}

// Get retrieves the credential for a source.
func (s *Store) Get(sourceID string) (string, error) {
	return "", fmt.Errorf("%w: credential storage", domain.ErrNotImplemented)
}
