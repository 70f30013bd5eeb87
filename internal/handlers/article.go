package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"
	"digichef/internal/services"
	"digichef/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type ArticleHandler struct {
	svc           services.ArticleService
	webhook       *services.MakeWebhookService
	webhookSecret string
}

func NewArticleHandler(svc services.ArticleService, webhook *services.MakeWebhookService, webhookSecret string) *ArticleHandler {
	return &ArticleHandler{svc: svc, webhook: webhook, webhookSecret: webhookSecret}
}

// List
// @Summary      Список статей
// @Description  Пагинация и фильтры: статус, модуль, поиск по заголовкам
// @Tags         articles
// @Produce      json
// @Param        page       query  int     false  "Страница (от 1)"
// @Param        limit      query  int     false  "Размер страницы (1..100)"
// @Param        status     query  string  false  "Фильтр по статусу"
// @Param        module_id  query  int     false  "Фильтр по модулю"
// @Param        q          query  string  false  "Поиск по заголовку"
// @Success      200  {object}  models.ArticleListResponse
// @Security     ApiKeyAuth
// @Router       /api/articles [get]
func (h *ArticleHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	p := models.ArticleListParams{Page: 1, Limit: 20}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		if v > 100 {
			v = 100
		}
		p.Limit = v
	}
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.ArticleStatus(s)
		if !st.Valid() {
			log.Warn("Неизвестный статус в фильтре", zap.String("status", s))
			helpers.Error(w, http.StatusBadRequest, "неизвестный статус")
			return
		}
		p.Status = &st
	}
	if m := r.URL.Query().Get("module_id"); m != "" {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			helpers.Error(w, http.StatusBadRequest, "неверный module_id")
			return
		}
		p.ModuleID = &id
	}
	p.Query = r.URL.Query().Get("q")

	items, total, err := h.svc.List(r.Context(), p)
	if err != nil {
		log.Error("Ошибка получения списка статей", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []*models.Article{}
	}

	helpers.JSON(w, http.StatusOK, models.ArticleListResponse{
		Items: items,
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
	})
}

// Create
// @Summary      Создать статью
// @Description  Новая статья получает статус proposed и не имеет версий
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateArticleRequest  true  "Данные статьи"
// @Success      201   {object}  models.Article
// @Failure      422   {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles [post]
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON при создании статьи", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "невалидный JSON")
		return
	}

	if msg := validateCreateArticle(&req); msg != "" {
		log.Warn("Валидация не пройдена", zap.String("details", msg))
		helpers.Error(w, http.StatusUnprocessableEntity, msg)
		return
	}

	article, err := h.svc.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownModules) {
			helpers.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error("Ошибка создания статьи", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	helpers.JSON(w, http.StatusCreated, article)
}

// GetByID
// @Summary      Получить статью
// @Description  Статья с модулями, последней версией и списком версий
// @Tags         articles
// @Produce      json
// @Param        id  path  int  true  "ID статьи"
// @Success      200  {object}  models.Article
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [get]
func (h *ArticleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	article, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, article)
}

// Delete
// @Summary      Удалить статью
// @Description  Версии и связи с модулями удаляются каскадом
// @Tags         articles
// @Param        id  path  int  true  "ID статьи"
// @Success      204  {string}  string  "No Content"
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [delete]
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestWriting
// @Summary      Отправить статью на написание
// @Description  Переводит статью в writing и отправляет её в Make.com. Сбой доставки вебхука не откатывает смену статуса.
// @Tags         articles
// @Produce      json
// @Param        id  path  int  true  "ID статьи"
// @Success      202  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/write [post]
func (h *ArticleHandler) RequestWriting(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	article, err := h.svc.RequestWriting(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Статус уже зафиксирован; вебхук — best effort, ошибки только в лог.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.webhook.SendArticleForWriting(ctx, article); err != nil {
			logger.Log.Error("Не удалось отправить статью в Make.com",
				zap.Int64("article_id", article.ID), zap.Error(err))
		}
	}()

	log.Info("Написание запрошено", zap.Int64("article_id", article.ID))
	helpers.JSON(w, http.StatusAccepted, map[string]interface{}{
		"message":    "writing_started",
		"article_id": article.ID,
	})
}

// WriteCallback
// @Summary      Колбэк от Make.com
// @Description  Принимает написанный контент. Защищён заголовком X-Webhook-Secret.
// @Tags         articles
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "ID статьи"
// @Param        body  body  models.WriteCallbackRequest  true  "Результат написания"
// @Success      200   {object}  models.Article
// @Failure      401   {object}  map[string]string
// @Router       /api/articles/{id}/write/callback [post]
func (h *ArticleHandler) WriteCallback(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	provided := r.Header.Get("X-Webhook-Secret")
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) != 1 {
		log.Warn("Колбэк с неверным секретом", zap.String("path", r.URL.Path))
		helpers.Error(w, http.StatusUnauthorized, "неверный webhook-секрет")
		return
	}

	id, ok := articleID(w, r)
	if !ok {
		return
	}

	var req models.WriteCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Невалидный JSON в колбэке", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "невалидный JSON")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		log.Warn("Колбэк без контента", zap.Int64("article_id", id))
		helpers.Error(w, http.StatusBadRequest, "content обязателен")
		return
	}

	article, version, err := h.svc.ReceiveWrittenContent(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Info("Колбэк принят",
		zap.Int64("article_id", article.ID),
		zap.Int("version_number", version.VersionNumber),
	)
	helpers.JSON(w, http.StatusOK, article)
}

// Validate
// @Summary      Проверить статью
// @Description  Требует хотя бы одну версию
// @Tags         articles
// @Produce      json
// @Param        id  path  int  true  "ID статьи"
// @Success      200  {object}  models.Article
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/validate [post]
func (h *ArticleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	article, err := h.svc.Validate(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, article)
}

// Publish
// @Summary      Опубликовать статью
// @Description  Требует статус validated
// @Tags         articles
// @Produce      json
// @Param        id  path  int  true  "ID статьи"
// @Success      200  {object}  models.Article
// @Failure      400  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/articles/{id}/published [post]
func (h *ArticleHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	article, err := h.svc.Publish(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, article)
}

// --- helpers ---

func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		helpers.Error(w, http.StatusBadRequest, "неверный id")
		return 0, false
	}
	return id, true
}

// writeError переводит ошибки сервисного слоя в HTTP-статусы.
func (h *ArticleHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.WithCtx(r.Context())

	var illegal *services.IllegalTransitionError
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		helpers.Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &illegal):
		helpers.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoVersionsYet),
		errors.Is(err, services.ErrNotValidated):
		helpers.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrDuplicateVersionNumber):
		// повтор внутри сервиса уже исчерпан
		helpers.Error(w, http.StatusConflict, err.Error())
	default:
		log.Error("Внутренняя ошибка", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func validateCreateArticle(req *models.CreateArticleRequest) string {
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	req.OriginalTitle = strings.TrimSpace(req.OriginalTitle)

	if req.SourceURL == "" {
		return "source_url: обязательное поле"
	}
	if len(req.SourceURL) > 500 {
		return "source_url: не длиннее 500 символов"
	}
	if u, err := url.ParseRequestURI(req.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return "source_url: некорректный URL"
	}
	if req.OriginalTitle == "" {
		return "original_title: обязательное поле"
	}
	if utf8.RuneCountInString(req.OriginalTitle) > 255 {
		return "original_title: не длиннее 255 символов"
	}
	if strings.TrimSpace(req.OriginalDescription) == "" {
		return "original_description: обязательное поле"
	}
	return ""
}
