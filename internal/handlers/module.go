package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
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

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

type ModuleHandler struct {
	svc services.ModuleService
}

func NewModuleHandler(svc services.ModuleService) *ModuleHandler {
	return &ModuleHandler{svc: svc}
}

// List
// @Summary      Список модулей
// @Tags         modules
// @Produce      json
// @Success      200  {array}  models.Module
// @Security     ApiKeyAuth
// @Router       /api/modules [get]
func (h *ModuleHandler) List(w http.ResponseWriter, r *http.Request) {
	mods, err := h.svc.List(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("Ошибка получения списка модулей", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	helpers.JSON(w, http.StatusOK, mods)
}

// Create
// @Summary      Создать модуль
// @Tags         modules
// @Accept       json
// @Produce      json
// @Param        body  body  models.CreateModuleRequest  true  "Данные модуля"
// @Success      201   {object}  models.Module
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/modules [post]
func (h *ModuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req models.CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "невалидный JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if msg := validateModuleFields(req.Name, req.Slug); msg != "" {
		log.Warn("Валидация модуля не пройдена", zap.String("details", msg))
		helpers.Error(w, http.StatusUnprocessableEntity, msg)
		return
	}

	m, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusCreated, m)
}

// Update
// @Summary      Изменить модуль
// @Description  Частичное обновление: отсутствующие поля не меняются
// @Tags         modules
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID модуля"
// @Param        body  body  models.UpdateModuleRequest  true  "Изменяемые поля"
// @Success      200   {object}  models.Module
// @Failure      404   {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/modules/{id} [patch]
func (h *ModuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	id, ok := moduleID(w, r)
	if !ok {
		return
	}

	var req models.UpdateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "невалидный JSON")
		return
	}

	name, slug := "", ""
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
		name = trimmed
	}
	if req.Slug != nil {
		trimmed := strings.TrimSpace(*req.Slug)
		req.Slug = &trimmed
		slug = trimmed
	}
	if msg := validateModulePatch(req.Name != nil, name, req.Slug != nil, slug); msg != "" {
		log.Warn("Валидация модуля не пройдена", zap.String("details", msg))
		helpers.Error(w, http.StatusUnprocessableEntity, msg)
		return
	}

	m, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.JSON(w, http.StatusOK, m)
}

// Articles
// @Summary      Статьи модуля
// @Tags         modules
// @Produce      json
// @Param        id     path   int  true   "ID модуля"
// @Param        page   query  int  false  "Страница (от 1)"
// @Param        limit  query  int  false  "Размер страницы (1..100)"
// @Success      200  {object}  models.ArticleListResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/modules/{id}/articles [get]
func (h *ModuleHandler) Articles(w http.ResponseWriter, r *http.Request) {
	id, ok := moduleID(w, r)
	if !ok {
		return
	}

	page, limit := 1, 20
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		if v > 100 {
			v = 100
		}
		limit = v
	}

	items, total, err := h.svc.ListArticles(r.Context(), id, page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Article{}
	}

	helpers.JSON(w, http.StatusOK, models.ArticleListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func moduleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		helpers.Error(w, http.StatusBadRequest, "неверный id")
		return 0, false
	}
	return id, true
}

func (h *ModuleHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrModuleNotFound):
		helpers.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrSlugTaken):
		helpers.Error(w, http.StatusConflict, err.Error())
	default:
		logger.WithCtx(r.Context()).Error("Внутренняя ошибка", zap.Error(err))
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func validateModuleFields(name, slug string) string {
	if name == "" {
		return "name: обязательное поле"
	}
	if utf8.RuneCountInString(name) > 100 {
		return "name: не длиннее 100 символов"
	}
	if slug == "" {
		return "slug: обязательное поле"
	}
	if len(slug) > 120 {
		return "slug: не длиннее 120 символов"
	}
	if !slugRe.MatchString(slug) {
		return "slug: только строчные латинские буквы, цифры и дефис"
	}
	return ""
}

func validateModulePatch(hasName bool, name string, hasSlug bool, slug string) string {
	if hasName {
		if name == "" {
			return "name: не может быть пустым"
		}
		if utf8.RuneCountInString(name) > 100 {
			return "name: не длиннее 100 символов"
		}
	}
	if hasSlug {
		if slug == "" {
			return "slug: не может быть пустым"
		}
		if len(slug) > 120 {
			return "slug: не длиннее 120 символов"
		}
		if !slugRe.MatchString(slug) {
			return "slug: только строчные латинские буквы, цифры и дефис"
		}
	}
	return ""
}
