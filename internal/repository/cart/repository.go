package cart

import (
	"context"

	"commerce-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository keys carts by user. Put replaces the full item set of the
// user's cart in one transaction; an empty item set deletes the cart row
// (there is no empty-active cart).
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Cart, error)
	Put(ctx context.Context, userID string, items []domain.CartItem, total decimal.Decimal) (*domain.Cart, error)
	Delete(ctx context.Context, userID string) error
}
