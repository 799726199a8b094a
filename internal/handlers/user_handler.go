package handlers

import (
	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type UserHandler struct {
	users repo.UserRepoInterface
}

func NewUserHandler(users repo.UserRepoInterface) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) GetSettings(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)
	return c.JSON(fiber.Map{
		"api_keys":          user.APIKeys.Data(),
		"base_urls":         user.BaseURLs.Data(),
		"selected_provider": user.SelectedProvider,
		"selected_model":    user.SelectedModel,
	})
}

// UpdateSettings merges the patch into the stored preferences: the two
// credential maps upsert key by key, the scalars overwrite.
func (h *UserHandler) UpdateSettings(c *fiber.Ctx) error {
	var patch models.SettingsUpdate
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	user := auth.CurrentUser(c)
	if patch.APIKeys != nil {
		user.APIKeys = datatypes.NewJSONType(mergeMaps(user.APIKeys.Data(), patch.APIKeys))
	}
	if patch.BaseURLs != nil {
		user.BaseURLs = datatypes.NewJSONType(mergeMaps(user.BaseURLs.Data(), patch.BaseURLs))
	}
	if patch.SelectedProvider != nil {
		user.SelectedProvider = *patch.SelectedProvider
	}
	if patch.SelectedModel != nil {
		user.SelectedModel = *patch.SelectedModel
	}

	if err := h.users.Save(user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Settings updated successfully"})
}

func mergeMaps(base, patch map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}
