package catalog

import (
	"context"

	"commerce-engine/internal/domain"
)

// Repository is the read-only catalog lookup this engine consumes.
// Catalog CRUD belongs to another system; we only resolve prices,
// weights and bundle composition.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
}
