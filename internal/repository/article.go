package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"digichef/internal/models"
)

var ErrArticleNotFound = errors.New("статья не найдена")

type ArticleRepo interface {
	Create(ctx context.Context, a *models.Article, moduleIDs []int64) (*models.Article, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context, p models.ArticleListParams) ([]*models.Article, int, error)
	ListByModule(ctx context.Context, moduleID int64, page, limit int) ([]*models.Article, int, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status models.ArticleStatus) error
	ApplyWriteResult(ctx context.Context, articleID int64, versionNumber int, req models.WriteCallbackRequest) (*models.ArticleVersion, error)
}

type articleRepo struct{ db *pgxpool.Pool }

func NewArticleRepo(db *pgxpool.Pool) ArticleRepo { return &articleRepo{db: db} }

const articleColumns = `id, source_url, original_title, original_description,
	suggested_title, suggested_description, score, status, created_at, updated_at`

func (r *articleRepo) Create(ctx context.Context, a *models.Article, moduleIDs []int64) (*models.Article, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO articles (source_url, original_title, original_description, status)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + articleColumns

	var out models.Article
	err = tx.QueryRow(ctx, q,
		a.SourceURL, a.OriginalTitle, a.OriginalDescription, models.StatusProposed,
	).Scan(
		&out.ID, &out.SourceURL, &out.OriginalTitle, &out.OriginalDescription,
		&out.SuggestedTitle, &out.SuggestedDescription, &out.Score, &out.Status,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, mid := range moduleIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO article_module (article_id, module_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			out.ID, mid,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	out.Modules, err = r.modulesOf(ctx, out.ID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	const q = `SELECT ` + articleColumns + ` FROM articles WHERE id=$1`

	var a models.Article
	err := r.db.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.SourceURL, &a.OriginalTitle, &a.OriginalDescription,
		&a.SuggestedTitle, &a.SuggestedDescription, &a.Score, &a.Status,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	a.Modules, err = r.modulesOf(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepo) List(ctx context.Context, p models.ArticleListParams) ([]*models.Article, int, error) {
	where := []string{}
	args := []interface{}{}
	i := 1

	join := ""
	if p.ModuleID != nil {
		join = " INNER JOIN article_module am ON am.article_id = a.id"
		where = append(where, fmt.Sprintf("am.module_id = $%d", i))
		args = append(args, *p.ModuleID)
		i++
	}
	if p.Status != nil {
		where = append(where, fmt.Sprintf("a.status = $%d", i))
		args = append(args, *p.Status)
		i++
	}
	if p.Query != "" {
		where = append(where, fmt.Sprintf("(a.original_title ILIKE $%d OR a.suggested_title ILIKE $%d)", i, i))
		args = append(args, "%"+p.Query+"%")
		i++
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countSQL := "SELECT COUNT(DISTINCT a.id) FROM articles a" + join + cond
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `SELECT DISTINCT a.id, a.source_url, a.original_title, a.original_description,
		a.suggested_title, a.suggested_description, a.score, a.status, a.created_at, a.updated_at
		FROM articles a` + join + cond
	sql += fmt.Sprintf(" ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d", i, i+1)
	args = append(args, p.Limit, (p.Page-1)*p.Limit)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []*models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(
			&a.ID, &a.SourceURL, &a.OriginalTitle, &a.OriginalDescription,
			&a.SuggestedTitle, &a.SuggestedDescription, &a.Score, &a.Status,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		list = append(list, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, a := range list {
		if a.Modules, err = r.modulesOf(ctx, a.ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

func (r *articleRepo) ListByModule(ctx context.Context, moduleID int64, page, limit int) ([]*models.Article, int, error) {
	return r.List(ctx, models.ArticleListParams{Page: page, Limit: limit, ModuleID: &moduleID})
}

func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	// версии и связи с модулями удаляются каскадом (FK ON DELETE CASCADE)
	ct, err := r.db.Exec(ctx, "DELETE FROM articles WHERE id=$1", id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrArticleNotFound
	}
	return nil
}

func (r *articleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`
	var ok bool
	if err := r.db.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *articleRepo) UpdateStatus(ctx context.Context, id int64, status models.ArticleStatus) error {
	const q = `UPDATE articles SET status=$2, updated_at=NOW() WHERE id=$1`
	ct, err := r.db.Exec(ctx, q, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// ApplyWriteResult атомарно вставляет новую версию и обновляет статью:
// подсказанные поля перезаписываются только если присутствуют в колбэке,
// статус безусловно становится written. Либо всё, либо ничего.
func (r *articleRepo) ApplyWriteResult(ctx context.Context, articleID int64, versionNumber int, req models.WriteCallbackRequest) (*models.ArticleVersion, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertQ = `
		INSERT INTO article_versions (article_id, content, version_number)
		VALUES ($1,$2,$3)
		RETURNING id, article_id, content, version_number, created_at`

	var v models.ArticleVersion
	err = tx.QueryRow(ctx, insertQ, articleID, req.Content, versionNumber).Scan(
		&v.ID, &v.ArticleID, &v.Content, &v.VersionNumber, &v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVersionNumber
		}
		return nil, err
	}

	const updateQ = `
		UPDATE articles
		SET suggested_title       = COALESCE($2, suggested_title),
		    suggested_description = COALESCE($3, suggested_description),
		    score                 = COALESCE($4, score),
		    status                = $5,
		    updated_at            = NOW()
		WHERE id=$1`

	ct, err := tx.Exec(ctx, updateQ,
		articleID, req.SuggestedTitle, req.SuggestedDescription, req.Score, models.StatusWritten,
	)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrArticleNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *articleRepo) modulesOf(ctx context.Context, articleID int64) ([]models.Module, error) {
	const q = `
		SELECT m.id, m.name, m.slug, m.active, m.created_at
		FROM modules m
		INNER JOIN article_module am ON am.module_id = m.id
		WHERE am.article_id = $1
		ORDER BY m.id`

	rows, err := r.db.Query(ctx, q, articleID)
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
