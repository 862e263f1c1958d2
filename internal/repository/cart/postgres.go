package cart

import (
	"context"
	"errors"

	"commerce-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, user_id::text, total_price, created_at, updated_at
FROM carts
WHERE user_id = $1
`
	return r.fetchCart(ctx, q, userID)
}

func (r *postgresRepo) GetByID(ctx context.Context, id, userID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, user_id::text, total_price, created_at, updated_at
FROM carts
WHERE id = $1 AND user_id = $2
`
	return r.fetchCart(ctx, q, id, userID)
}

func (r *postgresRepo) Put(ctx context.Context, userID string, items []domain.CartItem, total decimal.Decimal) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if len(items) == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &domain.Cart{UserID: userID, TotalPrice: decimal.Zero}, nil
	}

	const upsert = `
INSERT INTO carts (user_id, total_price)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET total_price = EXCLUDED.total_price, updated_at = now()
RETURNING id::text
`
	var cartID string
	if err := tx.QueryRow(ctx, upsert, userID, total).Scan(&cartID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, err
	}
	const insertLine = `
INSERT INTO cart_items (cart_id, item_type, product_id, bundle_id, variant_sku, quantity, price, total, added_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	for _, it := range items {
		if _, err := tx.Exec(ctx, insertLine,
			cartID,
			it.ItemType,
			it.ProductID,
			it.BundleID,
			it.VariantSKU,
			it.Quantity,
			it.Price,
			it.Total,
			it.AddedAt,
			it.UpdatedAt,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}

func (r *postgresRepo) Delete(ctx context.Context, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "cart"}
	}
	return nil
}

func (r *postgresRepo) fetchCart(ctx context.Context, q string, args ...any) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalPrice,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "cart"}
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, item_type, product_id::text, bundle_id::text, variant_sku, quantity, price, total, added_at, updated_at
FROM cart_items
WHERE cart_id = $1
ORDER BY added_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartItem
		if err := rows.Scan(
			&line.ID,
			&line.ItemType,
			&line.ProductID,
			&line.BundleID,
			&line.VariantSKU,
			&line.Quantity,
			&line.Price,
			&line.Total,
			&line.AddedAt,
			&line.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}
