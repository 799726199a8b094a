package handlers

import (
	"errors"

	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationHandler struct {
	conversations repo.ConversationRepoInterface
}

func NewConversationHandler(conversations repo.ConversationRepoInterface) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// ownedConversation loads a conversation by the :id param and enforces
// ownership. Absent and not-owned are indistinguishable to the caller.
func (h *ConversationHandler) ownedConversation(c *fiber.Ctx) (*models.Conversation, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	conv, err := h.conversations.Get(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
		}
		return nil, err
	}
	if conv.UserUUID != auth.CurrentUser(c).UUID {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return conv, nil
}

func (h *ConversationHandler) List(c *fiber.Ctx) error {
	convs, err := h.conversations.FindByUser(auth.CurrentUser(c).UUID)
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(convs))
	for _, conv := range convs {
		out = append(out, fiber.Map{
			"id":         conv.UUID,
			"title":      conv.Title,
			"created_at": conv.CreatedAt,
			"updated_at": conv.UpdatedAt,
		})
	}
	return c.JSON(out)
}

func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	conv, err := h.ownedConversation(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"id":         conv.UUID,
		"title":      conv.Title,
		"messages":   conv.Messages,
		"updated_at": conv.UpdatedAt,
	})
}

func (h *ConversationHandler) Rename(c *fiber.Ctx) error {
	title := c.Query("title")
	if title == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	conv, err := h.ownedConversation(c)
	if err != nil {
		return err
	}
	conv.Title = title
	if err := h.conversations.Save(conv); err != nil {
		return err
	}
	return c.JSON(conv)
}

func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	conv, err := h.ownedConversation(c)
	if err != nil {
		return err
	}
	if err := h.conversations.Delete(conv); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Deleted successfully"})
}
