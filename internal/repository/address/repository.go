package address

import (
	"context"

	"commerce-engine/internal/domain"
)

// Repository resolves user-owned addresses. Address CRUD is external;
// the engine only reads an address to snapshot it onto an order.
type Repository interface {
	Get(ctx context.Context, id, userID string) (*domain.Address, error)
}
