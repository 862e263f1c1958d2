package zone

import (
	"context"
	"errors"
	"io"
	"log"

	"commerce-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const zoneColumns = `id::text, zone_name, pincodes, pricing_type, weight_unit_grams, price, fixed_amount, is_default, is_active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := checkDuplicates(ctx, tx, zone.ZoneName, zone.Pincodes, ""); err != nil {
		return nil, err
	}

	const q = `
INSERT INTO delivery_zones (zone_name, pincodes, pricing_type, weight_unit_grams, price, fixed_amount, is_default, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + zoneColumns
	created, err := scanZone(tx.QueryRow(ctx, q,
		zone.ZoneName,
		zone.Pincodes,
		zone.PricingType,
		zone.WeightUnitGrams,
		zone.Price,
		zone.FixedAmount,
		zone.IsDefault,
		zone.IsActive,
	))
	if err != nil {
		r.logger.Printf("zone repo: create name=%s error=%v", zone.ZoneName, err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("zone repo: created id=%s name=%s", created.ID, created.ZoneName)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := checkDuplicates(ctx, tx, zone.ZoneName, zone.Pincodes, zone.ID); err != nil {
		return nil, err
	}

	const q = `
UPDATE delivery_zones
SET zone_name = $2,
    pincodes = $3,
    pricing_type = $4,
    weight_unit_grams = $5,
    price = $6,
    fixed_amount = $7,
    is_default = $8,
    is_active = $9,
    updated_at = now()
WHERE id = $1
RETURNING ` + zoneColumns
	updated, err := scanZone(tx.QueryRow(ctx, q,
		zone.ID,
		zone.ZoneName,
		zone.Pincodes,
		zone.PricingType,
		zone.WeightUnitGrams,
		zone.Price,
		zone.FixedAmount,
		zone.IsDefault,
		zone.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "delivery zone", ID: zone.ID}
		}
		r.logger.Printf("zone repo: update id=%s error=%v", zone.ID, err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM delivery_zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "delivery zone", ID: id}
	}
	r.logger.Printf("zone repo: deleted id=%s", id)
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	z, err := scanZone(r.pool.QueryRow(ctx, `SELECT `+zoneColumns+` FROM delivery_zones WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "delivery zone", ID: id}
		}
		return nil, err
	}
	return z, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.DeliveryZone, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+zoneColumns+` FROM delivery_zones ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.DeliveryZone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (r *postgresRepo) GetActiveByPincode(ctx context.Context, pincode string) (*domain.DeliveryZone, error) {
	const q = `
SELECT ` + zoneColumns + `
FROM delivery_zones
WHERE is_active AND $1 = ANY(pincodes)
ORDER BY created_at ASC
LIMIT 1
`
	z, err := scanZone(r.pool.QueryRow(ctx, q, pincode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "delivery zone for pincode", ID: pincode}
		}
		return nil, err
	}
	return z, nil
}

func (r *postgresRepo) GetActiveDefault(ctx context.Context) (*domain.DeliveryZone, error) {
	const q = `
SELECT ` + zoneColumns + `
FROM delivery_zones
WHERE is_active AND is_default
LIMIT 1
`
	z, err := scanZone(r.pool.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "default delivery zone"}
		}
		return nil, err
	}
	return z, nil
}

func (r *postgresRepo) SetDefault(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE delivery_zones SET is_default = false, updated_at = now() WHERE is_default AND id <> $1`, id); err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE delivery_zones SET is_default = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "delivery zone", ID: id}
	}
	r.logger.Printf("zone repo: default set id=%s", id)
	return nil
}

func (r *postgresRepo) FindNameOwner(ctx context.Context, name, excludeZoneID string) (string, error) {
	return findNameOwner(ctx, r.pool, name, excludeZoneID)
}

func (r *postgresRepo) FindPincodeOwners(ctx context.Context, pincodes []string, excludeZoneID string) (map[string]string, error) {
	return findPincodeOwners(ctx, r.pool, pincodes, excludeZoneID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func checkDuplicates(ctx context.Context, q querier, name string, pincodes []string, excludeZoneID string) error {
	if owner, err := findNameOwner(ctx, q, name, excludeZoneID); err != nil {
		return err
	} else if owner != "" {
		return &domain.ConflictError{
			Code: domain.ConflictDuplicateZoneName,
			Msg:  "zone name already in use",
		}
	}
	owners, err := findPincodeOwners(ctx, q, pincodes, excludeZoneID)
	if err != nil {
		return err
	}
	if len(owners) > 0 {
		return &domain.ConflictError{
			Code:      domain.ConflictDuplicatePincodes,
			Msg:       "pincodes already assigned to another zone",
			Conflicts: owners,
		}
	}
	return nil
}

func findNameOwner(ctx context.Context, q querier, name, excludeZoneID string) (string, error) {
	const query = `
SELECT id::text
FROM delivery_zones
WHERE lower(zone_name) = lower($1) AND ($2 = '' OR id::text <> $2)
LIMIT 1
`
	var owner string
	err := q.QueryRow(ctx, query, name, excludeZoneID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

func findPincodeOwners(ctx context.Context, q querier, pincodes []string, excludeZoneID string) (map[string]string, error) {
	if len(pincodes) == 0 {
		return nil, nil
	}
	const query = `
SELECT p.pin, z.zone_name
FROM delivery_zones z, unnest(z.pincodes) AS p(pin)
WHERE z.is_active AND p.pin = ANY($1) AND ($2 = '' OR z.id::text <> $2)
`
	rows, err := q.Query(ctx, query, pincodes, excludeZoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := map[string]string{}
	for rows.Next() {
		var pin, zoneName string
		if err := rows.Scan(&pin, &zoneName); err != nil {
			return nil, err
		}
		owners[pin] = zoneName
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, nil
	}
	return owners, nil
}

func scanZone(row pgx.Row) (*domain.DeliveryZone, error) {
	var z domain.DeliveryZone
	if err := row.Scan(
		&z.ID,
		&z.ZoneName,
		&z.Pincodes,
		&z.PricingType,
		&z.WeightUnitGrams,
		&z.Price,
		&z.FixedAmount,
		&z.IsDefault,
		&z.IsActive,
		&z.CreatedAt,
		&z.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &z, nil
}
