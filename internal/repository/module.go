package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digichef/internal/models"
)

var (
	ErrModuleNotFound = errors.New("модуль не найден")
	ErrSlugTaken      = errors.New("модуль с таким slug уже существует")
)

type ModuleRepo interface {
	Create(ctx context.Context, m *models.Module) (*models.Module, error)
	Update(ctx context.Context, m *models.Module) error
	GetByID(ctx context.Context, id int64) (*models.Module, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Module, error)
	List(ctx context.Context) ([]models.Module, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type moduleRepo struct{ db *pgxpool.Pool }

func NewModuleRepo(db *pgxpool.Pool) ModuleRepo { return &moduleRepo{db: db} }

func (r *moduleRepo) Create(ctx context.Context, m *models.Module) (*models.Module, error) {
	const q = `
		INSERT INTO modules (name, slug, active)
		VALUES ($1,$2,$3)
		RETURNING id, name, slug, active, created_at`

	var out models.Module
	err := r.db.QueryRow(ctx, q, m.Name, m.Slug, m.Active).Scan(
		&out.ID, &out.Name, &out.Slug, &out.Active, &out.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &out, nil
}

func (r *moduleRepo) Update(ctx context.Context, m *models.Module) error {
	const q = `UPDATE modules SET name=$1, slug=$2, active=$3 WHERE id=$4`
	ct, err := r.db.Exec(ctx, q, m.Name, m.Slug, m.Active, m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrModuleNotFound
	}
	return nil
}

func (r *moduleRepo) GetByID(ctx context.Context, id int64) (*models.Module, error) {
	const q = `SELECT id, name, slug, active, created_at FROM modules WHERE id=$1`
	var m models.Module
	err := r.db.QueryRow(ctx, q, id).Scan(&m.ID, &m.Name, &m.Slug, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *moduleRepo) GetByIDs(ctx context.Context, ids []int64) ([]models.Module, error) {
	if len(ids) == 0 {
		return []models.Module{}, nil
	}
	const q = `SELECT id, name, slug, active, created_at FROM modules WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mods := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

func (r *moduleRepo) List(ctx context.Context) ([]models.Module, error) {
	const q = `SELECT id, name, slug, active, created_at FROM modules ORDER BY id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mods := []models.Module{}
	for rows.Next() {
		var m models.Module
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

func (r *moduleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM modules WHERE slug=$1)`, slug).Scan(&exists)
	return exists, err
}
