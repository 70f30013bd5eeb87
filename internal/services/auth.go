package services

import (
	"context"
	"errors"
	"time"

	"digichef/internal/logger"
	"digichef/internal/models"
	"digichef/internal/repository"
	"digichef/internal/utils"

	"go.uber.org/zap"
)

type AuthService struct {
	repo repository.UserRepo
}

func NewAuthService(repo repository.UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

// LoginUser проверяет email и пароль, возвращает access-токен и пользователя.
func (s *AuthService) LoginUser(
	ctx context.Context,
	email, password, jwtSecret string,
	accessTTL time.Duration,
) (string, *models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("email", email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("email", email), zap.Error(err))
		return "", nil, errors.New("неверный email или пароль")
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("email", email))
		return "", nil, errors.New("неверный email или пароль")
	}

	token, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, accessTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации access-токена", zap.Error(err))
		return "", nil, err
	}

	logger.Log.Info("Вход выполнен (service)", zap.String("email", email), zap.Int("user_id", user.ID))
	return token, user, nil
}
