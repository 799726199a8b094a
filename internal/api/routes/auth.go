package routes

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/config"
	"openchatllm-backend/internal/handlers"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerAuth(app fiber.Router, deps *Deps) {
	userRepo := repo.NewUserRepository(config.DB)
	authHandler := handlers.NewAuthHandler(userRepo, deps.Tokens)

	requireAuth := auth.Middleware(deps.Tokens, userRepo)

	group := app.Group("/auth")
	group.Get("/check-username/:username", authHandler.CheckUsername)
	group.Post("/signup", authHandler.Signup)
	group.Post("/login", authHandler.Login)
	group.Post("/change-password", requireAuth, authHandler.ChangePassword)
}
