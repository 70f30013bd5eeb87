package app

import (
	"digichef/internal/config"
	"digichef/internal/db"
	"digichef/internal/handlers"
	"digichef/internal/logger"
	"digichef/internal/repository"
	"digichef/internal/routes"
	"digichef/internal/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepo(conn)
	articleRepo := repository.NewArticleRepo(conn)
	versionRepo := repository.NewArticleVersionRepo(conn)
	moduleRepo := repository.NewModuleRepo(conn)

	// События смены статуса — опционально, при пустом RABBIT_URI отключены
	var notifier services.StatusNotifier
	if cfg.RabbitURI != "" {
		pub, err := services.NewRabbitPublisher(cfg.RabbitURI, cfg.RabbitExchange, cfg.RabbitRoutingKey)
		if err != nil {
			logger.Log.Warn("RabbitMQ недоступен, события смены статуса отключены", zap.Error(err))
		} else {
			notifier = pub
		}
	}

	// Сервисы
	versionStore := services.NewVersionStore(versionRepo)
	articleService := services.NewArticleService(articleRepo, moduleRepo, versionStore, notifier)
	moduleService := services.NewModuleService(moduleRepo, articleRepo)
	authService := services.NewAuthService(userRepo)
	webhookService := services.NewMakeWebhookService(cfg.MakeWebhookURL)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, cfg)
	articleHandler := handlers.NewArticleHandler(articleService, webhookService, cfg.WebhookSecret)
	moduleHandler := handlers.NewModuleHandler(moduleService)

	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, articleHandler, moduleHandler)

	return router, nil
}
