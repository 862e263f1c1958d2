package order

import (
	"context"
	"errors"
	"io"
	"log"

	"commerce-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, user_id::text, address, total_amount, discounted_total_amount, shipping_cost, shipping_details, final_total_amount, status, version, created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	return r.create(ctx, o, "")
}

func (r *postgresRepo) CreateClearingCart(ctx context.Context, o domain.Order, cartID string) (*domain.Order, error) {
	return r.create(ctx, o, cartID)
}

func (r *postgresRepo) create(ctx context.Context, o domain.Order, clearCartID string) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
INSERT INTO orders (user_id, address, total_amount, discounted_total_amount, shipping_cost, shipping_details, final_total_amount, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id::text, version, created_at, updated_at
`
	if err := tx.QueryRow(ctx, q,
		o.UserID,
		o.Address,
		o.TotalAmount,
		o.DiscountedTotalAmount,
		o.ShippingCost,
		o.ShippingDetails,
		o.FinalTotalAmount,
		o.Status,
	).Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, err
	}

	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return nil, err
	}

	if clearCartID != "" {
		if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, clearCartID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s final_total=%s", o.ID, o.UserID, o.FinalTotalAmount.String())
	return &o, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.fetchMany(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.fetchMany(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// Update rewrites the order row and its item snapshots. The WHERE clause
// compares the version the caller read; zero rows with an existing order
// means a concurrent write got there first.
func (r *postgresRepo) Update(ctx context.Context, o domain.Order, expectedVersion int64) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
UPDATE orders
SET address = $3,
    total_amount = $4,
    discounted_total_amount = $5,
    shipping_cost = $6,
    shipping_details = $7,
    final_total_amount = $8,
    status = $9,
    version = version + 1,
    updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, updated_at
`
	err = tx.QueryRow(ctx, q,
		o.ID,
		expectedVersion,
		o.Address,
		o.TotalAmount,
		o.DiscountedTotalAmount,
		o.ShippingCost,
		o.ShippingDetails,
		o.FinalTotalAmount,
		o.Status,
	).Scan(&o.Version, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); checkErr != nil {
				return nil, checkErr
			}
			if !exists {
				return nil, &domain.NotFoundError{Resource: "order", ID: o.ID}
			}
			return nil, &domain.ConflictError{
				Code: domain.ConflictStaleVersion,
				Msg:  "order was modified concurrently",
			}
		}
		r.logger.Printf("order repo: update id=%s error=%v", o.ID, err)
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return nil, err
	}
	if err := insertItems(ctx, tx, o.ID, o.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("order repo: updated id=%s version=%d status=%s", o.ID, o.Version, o.Status)
	return &o, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []domain.OrderItem) error {
	const q = `
INSERT INTO order_items (order_id, position, item_type, ref_id, name, price, discounted_price, images, variant_sku, unit_weight_grams, quantity, total_amount, discounted_total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`
	for i, it := range items {
		if _, err := tx.Exec(ctx, q,
			orderID,
			i,
			it.ItemType,
			it.RefID,
			it.Name,
			it.Price,
			it.DiscountedPrice,
			it.Images,
			it.VariantSKU,
			it.UnitWeightGrams,
			it.Quantity,
			it.TotalAmount,
			it.DiscountedTotalAmount,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&o.ID,
		&o.UserID,
		&o.Address,
		&o.TotalAmount,
		&o.DiscountedTotalAmount,
		&o.ShippingCost,
		&o.ShippingDetails,
		&o.FinalTotalAmount,
		&o.Status,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "order"}
		}
		return nil, err
	}
	items, err := r.fetchItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *postgresRepo) fetchMany(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Address,
			&o.TotalAmount,
			&o.DiscountedTotalAmount,
			&o.ShippingCost,
			&o.ShippingDetails,
			&o.FinalTotalAmount,
			&o.Status,
			&o.Version,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.fetchItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *postgresRepo) fetchItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT item_type, ref_id::text, name, price, discounted_price, images, variant_sku, unit_weight_grams, quantity, total_amount, discounted_total_amount
FROM order_items
WHERE order_id = $1
ORDER BY position ASC
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(
			&it.ItemType,
			&it.RefID,
			&it.Name,
			&it.Price,
			&it.DiscountedPrice,
			&it.Images,
			&it.VariantSKU,
			&it.UnitWeightGrams,
			&it.Quantity,
			&it.TotalAmount,
			&it.DiscountedTotalAmount,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
