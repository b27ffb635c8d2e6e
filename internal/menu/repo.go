package menu

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("menu item not found")

type Query struct {
	RestaurantID string
	Q            string
	Limit        int
	Offset       int
}

type Repository interface {
	Create(ctx context.Context, m *MenuItem) error
	GetByID(ctx context.Context, id string) (*MenuItem, error)
	List(ctx context.Context, q Query) ([]MenuItem, error)
	Update(ctx context.Context, m *MenuItem, updatePrice bool) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, m *MenuItem) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO menu_items (id, restaurant_id, name, description, category, price, available, image_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
	`, m.ID, m.RestaurantID, m.Name, m.Description, m.Category, m.Price.String(), m.Available, m.ImageURL)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var m MenuItem
	var price string
	err := r.db.QueryRow(ctx, `
		SELECT id, restaurant_id, name, COALESCE(description,''), COALESCE(category,''),
		       price::text, available, COALESCE(image_url,''), created_at, updated_at
		FROM menu_items WHERE id=$1
	`, id).Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Category,
		&price, &m.Available, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	if m.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)

	rows, err := r.db.Query(ctx, `
		SELECT id, restaurant_id, name, COALESCE(description,''), COALESCE(category,''),
		       price::text, available, COALESCE(image_url,''), created_at, updated_at
		FROM menu_items
		WHERE ($1 = '' OR restaurant_id = $1)
		  AND ($2 = '' OR name ILIKE '%'||$2||'%' OR description ILIKE '%'||$2||'%')
		ORDER BY category, name
		LIMIT $3 OFFSET $4
	`, q.RestaurantID, search, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		var m MenuItem
		var price string
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Category,
			&price, &m.Available, &m.ImageURL, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if m.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, m *MenuItem, updatePrice bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if updatePrice {
		_, err := r.db.Exec(ctx, `
			UPDATE menu_items
			SET name = COALESCE(NULLIF($2,''), name),
			    description = COALESCE(NULLIF($3,''), description),
			    category = COALESCE(NULLIF($4,''), category),
			    price = $5,
			    available = $6,
			    image_url = COALESCE(NULLIF($7,''), image_url),
			    updated_at = NOW()
			WHERE id = $1
		`, m.ID, m.Name, m.Description, m.Category, m.Price.String(), m.Available, m.ImageURL)
		return err
	}

	_, err := r.db.Exec(ctx, `
		UPDATE menu_items
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    category = COALESCE(NULLIF($4,''), category),
		    available = $5,
		    image_url = COALESCE(NULLIF($6,''), image_url),
		    updated_at = NOW()
		WHERE id = $1
	`, m.ID, m.Name, m.Description, m.Category, m.Available, m.ImageURL)
	return err
}

func (r *PGRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE menu_items SET available = $2, updated_at = NOW() WHERE id = $1
	`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
