package routes

import (
	"digichef/internal/handlers"
	"digichef/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	articleHandler *handlers.ArticleHandler,
	moduleHandler *handlers.ModuleHandler,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Колбэк от Make.com защищён не JWT, а заголовком X-Webhook-Secret
	api.HandleFunc("/articles/{id:[0-9]+}/write/callback", articleHandler.WriteCallback).Methods("POST")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/articles", articleHandler.List).Methods("GET")
	protected.HandleFunc("/articles", articleHandler.Create).Methods("POST")
	protected.HandleFunc("/articles/{id:[0-9]+}", articleHandler.GetByID).Methods("GET")
	protected.HandleFunc("/articles/{id:[0-9]+}", articleHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/articles/{id:[0-9]+}/write", articleHandler.RequestWriting).Methods("POST")
	protected.HandleFunc("/articles/{id:[0-9]+}/validate", articleHandler.Validate).Methods("POST")
	protected.HandleFunc("/articles/{id:[0-9]+}/published", articleHandler.Publish).Methods("POST")

	protected.HandleFunc("/modules", moduleHandler.List).Methods("GET")
	protected.HandleFunc("/modules/{id:[0-9]+}/articles", moduleHandler.Articles).Methods("GET")

	// Управление справочником модулей — только админ
	admin := protected.PathPrefix("").Subrouter()
	admin.Use(middleware.OnlyRole("admin"))
	admin.HandleFunc("/modules", moduleHandler.Create).Methods("POST")
	admin.HandleFunc("/modules/{id:[0-9]+}", moduleHandler.Update).Methods("PATCH")
}
