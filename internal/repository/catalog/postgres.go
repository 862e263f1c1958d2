package catalog

import (
	"context"
	"errors"
	"io"
	"log"

	"commerce-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (r *postgresRepo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const q = `
SELECT id::text, name, price, discounted_price, weight_grams, images, variants, is_active
FROM products
WHERE id = $1
`
	var p domain.Product
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.DiscountedPrice,
		&p.WeightGrams,
		&p.Images,
		&p.Variants,
		&p.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("catalog repo: product id=%s not found", id)
			return nil, &domain.NotFoundError{Resource: "product", ID: id}
		}
		r.logger.Printf("catalog repo: product id=%s error=%v", id, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetBundle(ctx context.Context, id string) (*domain.Bundle, error) {
	const q = `
SELECT id::text, name, price, discounted_price, images, components, is_active
FROM bundles
WHERE id = $1
`
	var b domain.Bundle
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&b.ID,
		&b.Name,
		&b.Price,
		&b.DiscountedPrice,
		&b.Images,
		&b.Components,
		&b.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("catalog repo: bundle id=%s not found", id)
			return nil, &domain.NotFoundError{Resource: "bundle", ID: id}
		}
		r.logger.Printf("catalog repo: bundle id=%s error=%v", id, err)
		return nil, err
	}
	return &b, nil
}
