package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"openchatllm-backend/internal/auth"
	"openchatllm-backend/internal/catalog"
	"openchatllm-backend/internal/llm"
	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type ChatHandler struct {
	pipeline *workflow.ChatPipeline
	registry *llm.Registry
	catalog  *catalog.Cache
}

func NewChatHandler(pipeline *workflow.ChatPipeline, registry *llm.Registry, cache *catalog.Cache) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, registry: registry, catalog: cache}
}

// Chat handles POST /chat: one blocking provider call, one JSON response.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.pipeline.Chat(c.Context(), req)
	if err != nil {
		return mapPipelineError(err)
	}
	return c.JSON(resp)
}

// ChatStream handles POST /chat/stream. Resolution, ownership check and the
// user-turn persist all happen before the response commits, so those
// failures still get proper status codes; after that every frame goes out
// as an SSE data line.
func (h *ChatHandler) ChatStream(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.pipeline.PrepareStream(c.Context(), auth.CurrentUser(c), req)
	if err != nil {
		return mapPipelineError(err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// The writer runs after this handler returns; it must not touch c.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		emit := func(ev workflow.StreamEvent) error {
			if err := writeSSE(w, ev); err != nil {
				// Flush failure means the client hung up; stop pulling
				// fragments and let the provider connection go.
				cancel()
				return err
			}
			return nil
		}

		if err := session.Run(ctx, emit); err != nil {
			log.Debug().Err(err).Msg("chat stream ended early")
		}
	}))
	return nil
}

func writeSSE(w *bufio.Writer, ev workflow.StreamEvent) error {
	if ev.Done {
		if _, err := w.WriteString("data: [DONE]\n\n"); err != nil {
			return err
		}
		return w.Flush()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

// ListModels handles GET /models?provider=&apiKey=&baseUrl=.
func (h *ChatHandler) ListModels(c *fiber.Ctx) error {
	provider := c.Query("provider")
	apiKey := c.Query("apiKey")
	baseURL := c.Query("baseUrl")

	if cached, ok := h.catalog.Get(c.Context(), provider, baseURL); ok {
		return c.JSON(fiber.Map{"models": cached})
	}

	client, err := h.registry.Resolve(c.Context(), provider, apiKey, baseURL)
	if err != nil {
		return mapPipelineError(err)
	}

	modelIDs, err := client.ListModels(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	h.catalog.Set(c.Context(), provider, baseURL, modelIDs)
	return c.JSON(fiber.Map{"models": modelIDs})
}

func mapPipelineError(err error) error {
	var perr *llm.ProviderError
	switch {
	case errors.Is(err, llm.ErrUnsupportedProvider):
		return fiber.NewError(fiber.StatusBadRequest, "Unsupported provider")
	case errors.Is(err, workflow.ErrConversationNotFound):
		return fiber.NewError(fiber.StatusNotFound, workflow.ErrConversationNotFound.Error())
	case errors.Is(err, workflow.ErrNoMessages):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &perr):
		// The upstream message passes through verbatim.
		return fiber.NewError(fiber.StatusInternalServerError, perr.Error())
	default:
		return err
	}
}
