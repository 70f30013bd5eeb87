package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"digichef/internal/models"
)

// ErrDuplicateVersionNumber — гонка за номер версии: уникальный индекс
// (article_id, version_number) не дал второму писателю вставить тот же номер.
var ErrDuplicateVersionNumber = errors.New("номер версии уже занят")

type ArticleVersionRepo interface {
	MaxVersionNumber(ctx context.Context, articleID int64) (int, error)
	Insert(ctx context.Context, v *models.ArticleVersion) (*models.ArticleVersion, error)
	Latest(ctx context.Context, articleID int64) (*models.ArticleVersion, error)
	ListByArticle(ctx context.Context, articleID int64) ([]models.ArticleVersionSummary, error)
	CountByArticle(ctx context.Context, articleID int64) (int, error)
}

type versionRepo struct{ db *pgxpool.Pool }

func NewArticleVersionRepo(db *pgxpool.Pool) ArticleVersionRepo { return &versionRepo{db: db} }

// MaxVersionNumber читает текущий максимум из хранилища на момент вызова,
// без кэширования. 0 — если версий ещё нет.
func (r *versionRepo) MaxVersionNumber(ctx context.Context, articleID int64) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 0) FROM article_versions WHERE article_id=$1`
	var max int
	if err := r.db.QueryRow(ctx, q, articleID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (r *versionRepo) Insert(ctx context.Context, v *models.ArticleVersion) (*models.ArticleVersion, error) {
	const q = `
		INSERT INTO article_versions (article_id, content, version_number)
		VALUES ($1,$2,$3)
		RETURNING id, article_id, content, version_number, created_at`

	var out models.ArticleVersion
	err := r.db.QueryRow(ctx, q, v.ArticleID, v.Content, v.VersionNumber).Scan(
		&out.ID, &out.ArticleID, &out.Content, &out.VersionNumber, &out.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVersionNumber
		}
		return nil, err
	}
	return &out, nil
}

// Latest возвращает версию с наибольшим номером, nil — если версий нет.
func (r *versionRepo) Latest(ctx context.Context, articleID int64) (*models.ArticleVersion, error) {
	const q = `
		SELECT id, article_id, content, version_number, created_at
		FROM article_versions
		WHERE article_id=$1
		ORDER BY version_number DESC
		LIMIT 1`

	var v models.ArticleVersion
	err := r.db.QueryRow(ctx, q, articleID).Scan(
		&v.ID, &v.ArticleID, &v.Content, &v.VersionNumber, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *versionRepo) ListByArticle(ctx context.Context, articleID int64) ([]models.ArticleVersionSummary, error) {
	const q = `
		SELECT id, version_number, created_at
		FROM article_versions
		WHERE article_id=$1
		ORDER BY version_number`

	rows, err := r.db.Query(ctx, q, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.ArticleVersionSummary{}
	for rows.Next() {
		var s models.ArticleVersionSummary
		if err := rows.Scan(&s.ID, &s.VersionNumber, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *versionRepo) CountByArticle(ctx context.Context, articleID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM article_versions WHERE article_id=$1`
	var n int
	if err := r.db.QueryRow(ctx, q, articleID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// isUniqueViolation — код 23505 (unique_violation) в Postgres.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
