package address

import (
	"context"
	"errors"

	"commerce-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, id, userID string) (*domain.Address, error) {
	const q = `
SELECT id::text, user_id::text, full_name, phone, line1, line2, city, state, pincode, created_at
FROM addresses
WHERE id = $1 AND user_id = $2
`
	var a domain.Address
	err := r.pool.QueryRow(ctx, q, id, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.FullName,
		&a.Phone,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.State,
		&a.Pincode,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "address", ID: id}
		}
		return nil, err
	}
	return &a, nil
}
