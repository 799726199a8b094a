package routes

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/catalog"
	"openchatllm-backend/internal/llm"

	"github.com/gofiber/fiber/v2"
)

// Deps carries the process-wide collaborators built once in main. The
// provider registry in particular is constructed at startup and passed by
// reference, never touched through a package global.
type Deps struct {
	Registry *llm.Registry
	Tokens   *auth.TokenManager
	Catalog  *catalog.Cache
}

func Register(app *fiber.App, deps *Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "OpenChatLLM API is running"})
	})

	registerAuth(app, deps)
	registerChat(app, deps)
	registerConversations(app, deps)
	registerUser(app, deps)
}
