package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type Repository interface {
	// ListByRestaurant returns the full current order list for one
	// restaurant, items resolved, sorted descending by creation time.
	// An empty restaurantID returns every restaurant's orders (super-admin).
	ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) ListByRestaurant(ctx context.Context, restaurantID string) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, restaurant_id, customer_name,
           COALESCE(customer_email,''), COALESCE(customer_phone,''),
           order_type, status,
           total_amount::text, tax_amount::text, tip_amount::text,
           COALESCE(delivery_address,''), COALESCE(table_number,''), COALESCE(notes,''),
           created_at, updated_at, estimated_delivery_at, delivered_at
    FROM orders
    WHERE ($1 = '' OR restaurant_id = $1)
    ORDER BY created_at DESC
  `, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	byID := map[string]int{}
	for rows.Next() {
		var o Order
		var total, tax, tip string
		if err := rows.Scan(&o.ID, &o.RestaurantID, &o.CustomerName,
			&o.CustomerEmail, &o.CustomerPhone,
			&o.Type, &o.Status,
			&total, &tax, &tip,
			&o.DeliveryAddress, &o.TableNumber, &o.Notes,
			&o.CreatedAt, &o.UpdatedAt, &o.EstimatedAt, &o.DeliveredAt); err != nil {
			return nil, err
		}
		if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if o.TaxAmount, err = decimal.NewFromString(tax); err != nil {
			return nil, err
		}
		if o.TipAmount, err = decimal.NewFromString(tip); err != nil {
			return nil, err
		}
		byID[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	irows, err := r.db.Query(ctx, `
    SELECT oi.id, oi.order_id, oi.menu_item_id,
           COALESCE(mi.name, '(removed item)'),
           oi.quantity, oi.unit_price::text, COALESCE(oi.notes,'')
    FROM order_items oi
    LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
    JOIN orders o ON o.id = oi.order_id
    WHERE ($1 = '' OR o.restaurant_id = $1)
  `, restaurantID)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var it Item
		var price string
		if err := irows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &price, &it.Notes); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if i, ok := byID[it.OrderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, irows.Err()
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT oi.id, oi.order_id, oi.menu_item_id,
           COALESCE(mi.name, '(removed item)'),
           oi.quantity, oi.unit_price::text, COALESCE(oi.notes,'')
    FROM order_items oi
    LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
    WHERE oi.order_id = $1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var price string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &price, &it.Notes); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
    UPDATE orders
    SET status = $2, updated_at = NOW()
    WHERE id = $1
  `, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
