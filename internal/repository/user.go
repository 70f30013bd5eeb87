package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digichef/internal/models"
)

var ErrUserNotFound = errors.New("пользователь не найден")

type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) UserRepo { return &userRepo{db: db} }

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, first_name, last_name, password_hash, role, created_at, updated_at
		FROM users WHERE email=$1`

	var u models.User
	err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
