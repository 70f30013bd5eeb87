package services

import (
	"context"
	"errors"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"

	"go.uber.org/zap"
)

// ArticleService — единственная точка, которой разрешено менять статус статьи
// и добавлять версии. Все операции синхронны и работают с одной статьёй.
type ArticleService interface {
	Create(ctx context.Context, req models.CreateArticleRequest) (*models.Article, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context, p models.ArticleListParams) ([]*models.Article, int, error)
	Delete(ctx context.Context, id int64) error

	RequestWriting(ctx context.Context, id int64) (*models.Article, error)
	ReceiveWrittenContent(ctx context.Context, id int64, req models.WriteCallbackRequest) (*models.Article, *models.ArticleVersion, error)
	Validate(ctx context.Context, id int64) (*models.Article, error)
	Publish(ctx context.Context, id int64) (*models.Article, error)
}

// StatusNotifier получает уведомление после успешной смены статуса.
// Ошибка доставки логируется и никогда не отдаётся вызывающему.
type StatusNotifier interface {
	PublishStatusChanged(ctx context.Context, a *models.Article, from models.ArticleStatus) error
}

type articleService struct {
	repo     repository.ArticleRepo
	modules  repository.ModuleRepo
	versions *VersionStore
	notifier StatusNotifier // может быть nil
}

func NewArticleService(repo repository.ArticleRepo, modules repository.ModuleRepo, versions *VersionStore, notifier StatusNotifier) ArticleService {
	return &articleService{repo: repo, modules: modules, versions: versions, notifier: notifier}
}

func (s *articleService) Create(ctx context.Context, req models.CreateArticleRequest) (*models.Article, error) {
	log := logger.WithCtx(ctx)
	log.Info("Создание статьи",
		zap.String("source_url", req.SourceURL),
		zap.String("original_title", req.OriginalTitle),
		zap.Int("modules_count", len(req.Modules)),
	)

	if len(req.Modules) > 0 {
		found, err := s.modules.GetByIDs(ctx, req.Modules)
		if err != nil {
			log.Error("Ошибка проверки модулей (repo)", zap.Error(err))
			return nil, err
		}
		if len(found) != len(uniqueIDs(req.Modules)) {
			log.Warn("Валидация не пройдена: неизвестные модули", zap.Int64s("module_ids", req.Modules))
			return nil, ErrUnknownModules
		}
	}

	a := &models.Article{
		SourceURL:           req.SourceURL,
		OriginalTitle:       req.OriginalTitle,
		OriginalDescription: req.OriginalDescription,
	}

	created, err := s.repo.Create(ctx, a, req.Modules)
	if err != nil {
		log.Error("Ошибка создания статьи (repo)", zap.Error(err))
		return nil, err
	}

	log.Info("Статья создана", zap.Int64("id", created.ID), zap.String("status", string(created.Status)))
	return created, nil
}

func (s *articleService) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	log := logger.WithCtx(ctx)
	log.Debug("Получение статьи по ID", zap.Int64("id", id))

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn("Статья не найдена (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	if a.LatestVersion, err = s.versions.Latest(ctx, id); err != nil {
		return nil, err
	}
	if a.Versions, err = s.versions.ListByArticle(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *articleService) List(ctx context.Context, p models.ArticleListParams) ([]*models.Article, int, error) {
	log := logger.WithCtx(ctx)
	log.Debug("Получение списка статей",
		zap.Int("page", p.Page),
		zap.Int("limit", p.Limit),
		zap.Any("status", p.Status),
		zap.Any("module_id", p.ModuleID),
		zap.String("q", p.Query),
	)

	list, total, err := s.repo.List(ctx, p)
	if err != nil {
		log.Error("Ошибка получения списка статей (repo)", zap.Error(err))
		return nil, 0, err
	}

	log.Debug("Список статей получен", zap.Int("count", len(list)), zap.Int("total", total))
	return list, total, nil
}

func (s *articleService) Delete(ctx context.Context, id int64) error {
	log := logger.WithCtx(ctx)
	log.Info("Удаление статьи", zap.Int64("id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Error("Ошибка удаления статьи (repo)", zap.Int64("id", id), zap.Error(err))
		return err
	}

	log.Info("Статья удалена", zap.Int64("id", id))
	return nil
}

// RequestWriting переводит статью в writing. Переход проверяется по таблице
// переходов, хотя writing достижим из любого статуса — проверка обязательна
// на случай изменения таблицы. Отправку вебхука в Make.com выполняет
// HTTP-слой уже после коммита статуса: сбой доставки не откатывает переход.
func (s *articleService) RequestWriting(ctx context.Context, id int64) (*models.Article, error) {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn("Статья не найдена при запросе написания", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	from := a.Status
	if !IsValidStatusTransition(from, models.StatusWriting) {
		log.Warn("Недопустимый переход статуса",
			zap.Int64("id", id), zap.String("from", string(from)), zap.String("to", string(models.StatusWriting)))
		return nil, &IllegalTransitionError{From: from, To: models.StatusWriting}
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusWriting); err != nil {
		log.Error("Ошибка обновления статуса (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info("Написание запрошено", zap.Int64("id", id), zap.String("from", string(from)))
	s.notifyStatusChanged(ctx, updated, from)
	return updated, nil
}

// ReceiveWrittenContent обрабатывает колбэк внешнего сервиса написания:
// атомарно создаёт версию со следующим номером и обновляет статью
// (подсказанные поля — только присутствующие в колбэке; статус — written
// безусловно). Повторная доставка одинакового колбэка создаёт ещё одну
// версию, дедупликации нет.
func (s *articleService) ReceiveWrittenContent(ctx context.Context, id int64, req models.WriteCallbackRequest) (*models.Article, *models.ArticleVersion, error) {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn("Статья не найдена при обработке колбэка", zap.Int64("id", id), zap.Error(err))
		return nil, nil, err
	}
	from := a.Status

	n, err := s.versions.NextVersionNumber(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	v, err := s.repo.ApplyWriteResult(ctx, id, n, req)
	if errors.Is(err, repository.ErrDuplicateVersionNumber) {
		log.Warn("Гонка за номер версии в колбэке, повторяем",
			zap.Int64("id", id), zap.Int("version_number", n))

		if n, err = s.versions.NextVersionNumber(ctx, id); err != nil {
			return nil, nil, err
		}
		v, err = s.repo.ApplyWriteResult(ctx, id, n, req)
	}
	if err != nil {
		log.Error("Ошибка применения результата написания (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, nil, err
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Колбэк обработан",
		zap.Int64("id", id),
		zap.Int("version_number", v.VersionNumber),
		zap.Any("score", updated.Score),
	)
	s.notifyStatusChanged(ctx, updated, from)
	return updated, v, nil
}

// Validate переводит статью в validated. Единственное условие — хотя бы одна
// версия; текущий статус по таблице переходов здесь сознательно не
// проверяется (поведение закреплено тестами).
func (s *articleService) Validate(ctx context.Context, id int64) (*models.Article, error) {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn("Статья не найдена при проверке", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	from := a.Status

	n, err := s.versions.CountByArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		log.Warn("Проверка отклонена: нет версий", zap.Int64("id", id))
		return nil, ErrNoVersionsYet
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusValidated); err != nil {
		log.Error("Ошибка обновления статуса (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info("Статья проверена", zap.Int64("id", id), zap.String("from", string(from)))
	s.notifyStatusChanged(ctx, updated, from)
	return updated, nil
}

// Publish переводит статью в published. Требует текущий статус validated.
func (s *articleService) Publish(ctx context.Context, id int64) (*models.Article, error) {
	log := logger.WithCtx(ctx)

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn("Статья не найдена при публикации", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	from := a.Status

	if from != models.StatusValidated {
		log.Warn("Публикация отклонена: статья не проверена",
			zap.Int64("id", id), zap.String("status", string(from)))
		return nil, ErrNotValidated
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusPublished); err != nil {
		log.Error("Ошибка обновления статуса (repo)", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info("Статья опубликована", zap.Int64("id", id))
	s.notifyStatusChanged(ctx, updated, from)
	return updated, nil
}

// notifyStatusChanged отправляет событие смены статуса, не блокируя запрос
// и не завязываясь на HTTP-контекст. Ошибки только логируются.
func (s *articleService) notifyStatusChanged(ctx context.Context, a *models.Article, from models.ArticleStatus) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.PublishStatusChanged(ctx, a, from); err != nil {
			logger.Log.Error("Не удалось отправить событие смены статуса",
				zap.Int64("article_id", a.ID), zap.Error(err))
		}
	}()
}

func uniqueIDs(in []int64) []int64 {
	seen := map[int64]struct{}{}
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
