package services

import (
	"context"

	"go.uber.org/zap"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"
)

type ModuleService interface {
	Create(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error)
	Update(ctx context.Context, id int64, req models.UpdateModuleRequest) (*models.Module, error)
	GetByID(ctx context.Context, id int64) (*models.Module, error)
	List(ctx context.Context) ([]models.Module, error)
	ListArticles(ctx context.Context, moduleID int64, page, limit int) ([]*models.Article, int, error)
}

type moduleService struct {
	repo     repository.ModuleRepo
	articles repository.ArticleRepo
}

func NewModuleService(repo repository.ModuleRepo, articles repository.ArticleRepo) ModuleService {
	return &moduleService{repo: repo, articles: articles}
}

func (s *moduleService) Create(ctx context.Context, req models.CreateModuleRequest) (*models.Module, error) {
	log := logger.WithCtx(ctx)

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	m, err := s.repo.Create(ctx, &models.Module{
		Name:   req.Name,
		Slug:   req.Slug,
		Active: active,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Модуль создан", zap.Int64("module_id", m.ID), zap.String("slug", m.Slug))
	return m, nil
}

// Update применяет только присланные поля; отсутствующее поле значения не меняет.
func (s *moduleService) Update(ctx context.Context, id int64, req models.UpdateModuleRequest) (*models.Module, error) {
	log := logger.WithCtx(ctx)

	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Slug != nil {
		m.Slug = *req.Slug
	}
	if req.Active != nil {
		m.Active = *req.Active
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	log.Info("Модуль обновлён", zap.Int64("module_id", m.ID))
	return m, nil
}

func (s *moduleService) GetByID(ctx context.Context, id int64) (*models.Module, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *moduleService) List(ctx context.Context) ([]models.Module, error) {
	return s.repo.List(ctx)
}

// ListArticles возвращает статьи модуля постранично, включая неактивные модули.
func (s *moduleService) ListArticles(ctx context.Context, moduleID int64, page, limit int) ([]*models.Article, int, error) {
	if _, err := s.repo.GetByID(ctx, moduleID); err != nil {
		return nil, 0, err
	}
	return s.articles.ListByModule(ctx, moduleID, page, limit)
}
