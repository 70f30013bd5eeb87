package services

import (
	"context"
	"errors"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"

	"go.uber.org/zap"
)

// VersionStore владеет инвариантом нумерации версий: номера каждой статьи
// образуют непрерывную возрастающую последовательность, начиная с 1.
type VersionStore struct {
	repo repository.ArticleVersionRepo
}

func NewVersionStore(repo repository.ArticleVersionRepo) *VersionStore {
	return &VersionStore{repo: repo}
}

// NextVersionNumber — 1 + max(существующих номеров). Считается из хранилища
// на момент вызова, кэшировать нельзя: при конкурентных писателях номер
// может устареть (см. CreateVersion).
func (s *VersionStore) NextVersionNumber(ctx context.Context, articleID int64) (int, error) {
	max, err := s.repo.MaxVersionNumber(ctx, articleID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CreateVersion выделяет следующий номер и сохраняет новую версию.
// Если конкурентный писатель успел занять номер (уникальный индекс в БД),
// номер пересчитывается и вставка повторяется один раз; после этого
// ошибка отдаётся наверх как есть.
func (s *VersionStore) CreateVersion(ctx context.Context, articleID int64, content string) (*models.ArticleVersion, error) {
	log := logger.WithCtx(ctx)

	n, err := s.NextVersionNumber(ctx, articleID)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.Insert(ctx, &models.ArticleVersion{
		ArticleID:     articleID,
		Content:       content,
		VersionNumber: n,
	})
	if errors.Is(err, repository.ErrDuplicateVersionNumber) {
		log.Warn("Гонка за номер версии, повторяем с новым номером",
			zap.Int64("article_id", articleID), zap.Int("version_number", n))

		if n, err = s.NextVersionNumber(ctx, articleID); err != nil {
			return nil, err
		}
		v, err = s.repo.Insert(ctx, &models.ArticleVersion{
			ArticleID:     articleID,
			Content:       content,
			VersionNumber: n,
		})
	}
	if err != nil {
		return nil, err
	}

	log.Info("Версия статьи создана",
		zap.Int64("article_id", articleID), zap.Int("version_number", v.VersionNumber))
	return v, nil
}

// Latest возвращает версию с наибольшим номером, nil — если версий нет.
func (s *VersionStore) Latest(ctx context.Context, articleID int64) (*models.ArticleVersion, error) {
	return s.repo.Latest(ctx, articleID)
}

func (s *VersionStore) ListByArticle(ctx context.Context, articleID int64) ([]models.ArticleVersionSummary, error) {
	return s.repo.ListByArticle(ctx, articleID)
}

func (s *VersionStore) CountByArticle(ctx context.Context, articleID int64) (int, error) {
	return s.repo.CountByArticle(ctx, articleID)
}
