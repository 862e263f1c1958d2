package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Fixed ids keep the seed idempotent across runs.
const (
	productShirtID  = "6f1a1a64-0000-4000-8000-000000000001"
	productMugID    = "6f1a1a64-0000-4000-8000-000000000002"
	productBottleID = "6f1a1a64-0000-4000-8000-000000000003"
	bundleStarterID = "6f1a1a64-0000-4000-8000-000000000101"
	zoneMetroID     = "6f1a1a64-0000-4000-8000-000000000201"
	zoneRestID      = "6f1a1a64-0000-4000-8000-000000000202"
	demoUserID      = "6f1a1a64-0000-4000-8000-000000000301"
	demoAddressID   = "6f1a1a64-0000-4000-8000-000000000302"
)

type productSeed struct {
	ID              string
	Name            string
	Price           string
	DiscountedPrice *string
	WeightGrams     int64
	Variants        string
}

// Apply inserts demo catalog, zone and address data for manual testing.
// It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	discounted := "100.00"
	products := []productSeed{
		{
			ID:              productShirtID,
			Name:            "Cotton T-Shirt",
			Price:           "120.00",
			DiscountedPrice: &discounted,
			WeightGrams:     600,
			Variants:        `[{"sku":"TSHIRT-S","price":"110.00"},{"sku":"TSHIRT-XL","price":"130.00"}]`,
		},
		{
			ID:          productMugID,
			Name:        "Ceramic Mug",
			Price:       "50.00",
			WeightGrams: 300,
			Variants:    "[]",
		},
		{
			ID:          productBottleID,
			Name:        "Steel Bottle",
			Price:       "250.00",
			WeightGrams: 450,
			Variants:    "[]",
		},
	}
	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	if err := upsertBundle(ctx, pool); err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	if err := upsertZones(ctx, pool); err != nil {
		return fmt.Errorf("upsert zones: %w", err)
	}
	if err := upsertAddress(ctx, pool); err != nil {
		return fmt.Errorf("upsert address: %w", err)
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (id, name, price, discounted_price, weight_grams, variants)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    price = EXCLUDED.price,
    discounted_price = EXCLUDED.discounted_price,
    weight_grams = EXCLUDED.weight_grams,
    variants = EXCLUDED.variants
`
	_, err := pool.Exec(ctx, q, p.ID, p.Name, p.Price, p.DiscountedPrice, p.WeightGrams, p.Variants)
	return err
}

func upsertBundle(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO bundles (id, name, price, components)
VALUES ($1, 'Starter Kit', 150.00, $2::jsonb)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    price = EXCLUDED.price,
    components = EXCLUDED.components
`
	components := fmt.Sprintf(`[{"productId":%q,"quantity":1},{"productId":%q,"quantity":2}]`,
		productShirtID, productMugID)
	_, err := pool.Exec(ctx, q, bundleStarterID, components)
	return err
}

func upsertZones(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO delivery_zones (id, zone_name, pincodes, pricing_type, weight_unit_grams, price, fixed_amount, is_default)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE
SET zone_name = EXCLUDED.zone_name,
    pincodes = EXCLUDED.pincodes,
    pricing_type = EXCLUDED.pricing_type,
    weight_unit_grams = EXCLUDED.weight_unit_grams,
    price = EXCLUDED.price,
    fixed_amount = EXCLUDED.fixed_amount,
    is_default = EXCLUDED.is_default,
    updated_at = now()
`
	unit := int64(1000)
	price := "40.00"
	if _, err := pool.Exec(ctx, q, zoneMetroID, "Delhi Metro",
		[]string{"110001", "110002", "110003"}, "flat_rate", unit, price, nil, false); err != nil {
		return err
	}
	fixed := "99.00"
	_, err := pool.Exec(ctx, q, zoneRestID, "Rest of India",
		[]string{}, "fixed_rate", nil, nil, fixed, true)
	return err
}

func upsertAddress(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO addresses (id, user_id, full_name, phone, line1, city, state, pincode)
VALUES ($1, $2, 'Demo User', '9999999999', '1 Connaught Place', 'New Delhi', 'Delhi', '110001')
ON CONFLICT (id) DO NOTHING
`
	_, err := pool.Exec(ctx, q, demoAddressID, demoUserID)
	return err
}
