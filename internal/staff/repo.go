package staff

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("staff member not found")
	ErrAlreadyExist = errors.New("staff member already exists")
)

type Repository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id string) (*Staff, error)
	GetByEmail(ctx context.Context, email string) (*Staff, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, s *Staff) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO staff (id, restaurant_id, name, email, role, password_hash, created_at, updated_at)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,NOW(),NOW())
	`, s.ID, s.RestaurantID, s.Name, s.Email, s.Role, s.PasswordHash)
	if err != nil {
		// email carries a UNIQUE constraint
		return ErrAlreadyExist
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(restaurant_id,''), name, email, role, password_hash, created_at, updated_at
		FROM staff WHERE id=$1
	`, id)
	var s Staff
	if err := row.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Email, &s.Role, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(restaurant_id,''), name, email, role, password_hash, created_at, updated_at
		FROM staff WHERE email=$1
	`, email)
	var s Staff
	if err := row.Scan(&s.ID, &s.RestaurantID, &s.Name, &s.Email, &s.Role, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
