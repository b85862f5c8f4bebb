package handler

import (
	"net/http"

	"github.com/andressep95/city-news-api/internal/handler/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	newsHandler *NewsHandler,
	adminHandler *AdminHandler,
	healthHandler *HealthHandler,
	metricsHandler http.Handler,
	authMiddleware fiber.Handler,
	requireAdmin fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)
	if metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authMiddleware, authHandler.Logout)

	// User routes (protected)
	users := api.Group("/users", authMiddleware)
	users.Put("/city", userHandler.UpdateCity)

	// News (protected)
	api.Get("/news", authMiddleware, newsHandler.Search)

	// Admin routes (require admin role)
	admin := api.Group("/admin", authMiddleware, requireAdmin)
	admin.Get("/users", adminHandler.GetUsers)
	admin.Get("/sessions", adminHandler.GetSessions)
	admin.Get("/searches", adminHandler.GetSearches)

	app.Use(response.NotFound)
}
