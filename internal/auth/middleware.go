package auth

import (
	"strings"

	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "currentUser"

// Middleware authenticates a bearer token and loads the user into the
// request locals. Anything short of a valid token for an existing user is
// a 401.
func Middleware(tokens *TokenManager, users repo.UserRepoInterface) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		user, err := users.GetByID(userID)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user loaded by Middleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
