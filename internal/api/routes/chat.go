package routes

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/config"
	"openchatllm-backend/internal/handlers"
	"openchatllm-backend/internal/repo"
	"openchatllm-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// registerChat wires the chat pipeline and its routes. /models stays open:
// the frontend queries catalogs before the user logs in.
func registerChat(app fiber.Router, deps *Deps) {
	conversationRepo := repo.NewConversationRepository(config.DB)
	userRepo := repo.NewUserRepository(config.DB)

	pipeline := workflow.NewChatPipeline(deps.Registry, conversationRepo)
	chatHandler := handlers.NewChatHandler(pipeline, deps.Registry, deps.Catalog)

	requireAuth := auth.Middleware(deps.Tokens, userRepo)

	app.Post("/chat", requireAuth, chatHandler.Chat)
	app.Post("/chat/stream", requireAuth, chatHandler.ChatStream)
	app.Get("/models", chatHandler.ListModels)
}
