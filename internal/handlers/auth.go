package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"digichef/internal/config"
	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/services"
	"digichef/internal/utils/helpers"

	"go.uber.org/zap"
)

type AuthHandler struct {
	svc *services.AuthService
	cfg *config.Config
}

func NewAuthHandler(svc *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    example:"admin@digichef.fr"`
	Password string `json:"password" example:"secret"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Login
// @Summary      Вход
// @Description  Возвращает access-токен и профиль пользователя
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Учётные данные"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "невалидный JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		helpers.Error(w, http.StatusBadRequest, "email и password обязательны")
		return
	}

	ttl, err := time.ParseDuration(h.cfg.AccessTokenTTL)
	if err != nil {
		ttl = 15 * time.Minute
	}

	token, user, err := h.svc.LoginUser(r.Context(), req.Email, req.Password, h.cfg.JWTSecret, ttl)
	if err != nil {
		log.Warn("Неудачная попытка входа", zap.String("email", req.Email))
		helpers.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	helpers.JSON(w, http.StatusOK, loginResponse{AccessToken: token, User: user})
}
