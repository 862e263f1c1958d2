package zone

import (
	"context"

	"commerce-engine/internal/domain"
)

// Repository owns delivery zone storage. Create and Update run the
// duplicate-name and duplicate-pincode checks in the same serializable
// transaction as the write, so concurrent admin calls cannot both pass
// the check.
type Repository interface {
	Create(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error)
	Update(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.DeliveryZone, error)
	List(ctx context.Context) ([]domain.DeliveryZone, error)
	GetActiveByPincode(ctx context.Context, pincode string) (*domain.DeliveryZone, error)
	GetActiveDefault(ctx context.Context) (*domain.DeliveryZone, error)
	// SetDefault clears is_default on every other zone, then sets it on id.
	// Two statements; callers must not assume atomicity under concurrent
	// default flips.
	SetDefault(ctx context.Context, id string) error
	// FindNameOwner returns the id of a different zone already using the
	// name (case-insensitive), or "" when the name is free.
	FindNameOwner(ctx context.Context, name, excludeZoneID string) (string, error)
	// FindPincodeOwners maps each submitted pincode that already belongs
	// to another active zone to that zone's name.
	FindPincodeOwners(ctx context.Context, pincodes []string, excludeZoneID string) (map[string]string, error)
}
