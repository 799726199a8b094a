package routes

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/config"
	"openchatllm-backend/internal/handlers"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerConversations(app fiber.Router, deps *Deps) {
	conversationRepo := repo.NewConversationRepository(config.DB)
	userRepo := repo.NewUserRepository(config.DB)
	conversationHandler := handlers.NewConversationHandler(conversationRepo)

	requireAuth := auth.Middleware(deps.Tokens, userRepo)

	group := app.Group("/conversations", requireAuth)
	group.Get("/", conversationHandler.List)
	group.Get("/:id", conversationHandler.Get)
	group.Patch("/:id", conversationHandler.Rename)
	group.Delete("/:id", conversationHandler.Delete)
}
