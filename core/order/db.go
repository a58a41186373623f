package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dvelichkov/storefront/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

// Submit writes the order and its items in one transaction: either the
// whole snapshot lands, or none of it does.
func Submit(ctx context.Context, db *sqlx.DB, ord Order) error {
	return database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, it := range ord.Items {
			if err := createItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item[%s]: %w", it.ProductID, err)
			}
		}

		return nil
	})
}

func create(ctx context.Context, db sqlx.ExtContext, ord Order) error {
	const q = `
	INSERT INTO orders
		(order_id, reference, first_name, last_name, email, phone1, phone2, address,
		 region_code, region_name, municipality, delivery_mode, carrier_name,
		 delivery_cost, subtotal, total, currency, status, created_at, updated_at)
	VALUES
		(:order_id, :reference, :first_name, :last_name, :email, :phone1, :phone2, :address,
		 :region_code, :region_name, :municipality, :delivery_mode, :carrier_name,
		 :delivery_cost, :subtotal, :total, :currency, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ord); err != nil {
		return err
	}

	return nil
}

func createItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(item_id, order_id, product_id, name, unit_price, quantity, color, size, created_at)
	VALUES
		(:item_id, :order_id, :product_id, :name, :unit_price, :quantity, :color, :size, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return err
	}

	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, id string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var ord Order
	if err := db.GetContext(ctx, &ord, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order[%s]: %w", id, err)
	}

	const qi = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at`
	ord.Items = []Item{}
	if err := db.SelectContext(ctx, &ord.Items, qi, id); err != nil {
		return Order{}, fmt.Errorf("selecting items of order[%s]: %w", id, err)
	}

	ord.StatusLabel = ord.Status.Label()
	return ord, nil
}

func List(ctx context.Context, db *sqlx.DB) ([]Order, error) {
	const q = `SELECT * FROM orders ORDER BY created_at DESC`

	ords := []Order{}
	if err := db.SelectContext(ctx, &ords, q); err != nil {
		return nil, fmt.Errorf("selecting orders: %w", err)
	}

	for i := range ords {
		ords[i].StatusLabel = ords[i].Status.Label()
	}
	return ords, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id string, status Status, now time.Time) error {
	const q = `UPDATE orders SET status = $2, updated_at = $3 WHERE order_id = $1`

	res, err := db.ExecContext(ctx, q, id, status, now)
	if err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
