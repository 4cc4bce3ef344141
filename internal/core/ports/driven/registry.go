package driven

import (
	"context"

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
)

// RegistryStore persists the document registry aggregate.
// Save must be atomic (write-to-temp then rename) so concurrent readers
// never observe a partially written registry.
type RegistryStore interface {
	// Load reads the registry, returning an empty registry if none exists
	// yet. A present but unreadable registry is a domain.ErrRegistry.
	Load(ctx context.Context) (*domain.Registry, error)

	// Save atomically replaces the persisted registry.
	Save(ctx context.Context, reg *domain.Registry) error
}
