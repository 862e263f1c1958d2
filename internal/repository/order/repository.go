package order

import (
	"context"

	"commerce-engine/internal/domain"
)

// Repository persists immutable order records. Every write bumps the
// order's version; Update is compare-and-swap on the version the caller
// read, so concurrent admin edits cannot silently overwrite each other.
type Repository interface {
	// Create inserts the order alone.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// CreateClearingCart inserts the order and deletes the source cart in
	// one transaction, closing the order-saved-but-cart-kept window.
	CreateClearingCart(ctx context.Context, o domain.Order, cartID string) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, o domain.Order, expectedVersion int64) (*domain.Order, error)
}
