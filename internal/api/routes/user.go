package routes

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/config"
	"openchatllm-backend/internal/handlers"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerUser(app fiber.Router, deps *Deps) {
	userRepo := repo.NewUserRepository(config.DB)
	userHandler := handlers.NewUserHandler(userRepo)

	requireAuth := auth.Middleware(deps.Tokens, userRepo)

	group := app.Group("/user", requireAuth)
	group.Get("/settings", userHandler.GetSettings)
	group.Patch("/settings", userHandler.UpdateSettings)
}
