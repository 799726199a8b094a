package workflow

import (
	"context"
	"errors"
	"strings"

	"openchatllm-backend/internal/llm"
	"openchatllm-backend/internal/metrics"
	"openchatllm-backend/internal/models"
	"openchatllm-backend/internal/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const titleMaxRunes = 50

var (
	// ErrConversationNotFound covers both a missing conversation and one
	// owned by a different user; callers cannot tell the two apart.
	ErrConversationNotFound = errors.New("Conversation not found")

	ErrNoMessages = errors.New("messages must not be empty")
)

// StreamEvent is one frame of a streaming chat turn. Exactly one of the
// fields is meaningful per event; Done marks the terminal sentinel.
type StreamEvent struct {
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`
	Error          string `json:"error,omitempty"`
	Done           bool   `json:"-"`
}

// EmitFunc delivers one event to the transport. Returning an error aborts
// the stream (the client is gone).
type EmitFunc func(StreamEvent) error

// ChatPipeline orchestrates single chat turns against a resolved provider,
// persisting conversation state around the provider call.
type ChatPipeline struct {
	registry      *llm.Registry
	conversations repo.ConversationRepoInterface
}

func NewChatPipeline(registry *llm.Registry, conversations repo.ConversationRepoInterface) *ChatPipeline {
	return &ChatPipeline{registry: registry, conversations: conversations}
}

// Chat performs a single-shot turn. Nothing is persisted on this path.
func (p *ChatPipeline) Chat(ctx context.Context, req models.ChatRequest) (*llm.ChatResponse, error) {
	metrics.Global().ChatRequests.Inc()

	client, err := p.registry.Resolve(ctx, req.Provider, req.APIKey, req.BaseURL)
	if err != nil {
		return nil, err
	}

	resp, err := client.Chat(ctx, req.Messages, req.Model, req.Parameters)
	if err != nil {
		metrics.Global().ProviderErrors.WithLabelValues(strings.ToLower(req.Provider)).Inc()
		return nil, err
	}
	return resp, nil
}

// StreamSession is a prepared streaming turn: provider resolved,
// conversation resolved (ownership checked) and the user message already
// persisted. Run drives the provider stream.
type StreamSession struct {
	pipeline     *ChatPipeline
	client       llm.Client
	conversation *models.Conversation
	req          models.ChatRequest
}

// PrepareStream runs every step that can still fail with a meaningful HTTP
// status: provider resolution, conversation lookup and the user-turn
// persist. The user message is durable before any provider work happens,
// so a provider failure never loses the submitted turn.
func (p *ChatPipeline) PrepareStream(ctx context.Context, user *models.User, req models.ChatRequest) (*StreamSession, error) {
	metrics.Global().StreamRequests.Inc()

	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	client, err := p.registry.Resolve(ctx, req.Provider, req.APIKey, req.BaseURL)
	if err != nil {
		return nil, err
	}

	conv, err := p.resolveConversation(user, req)
	if err != nil {
		return nil, err
	}

	last := req.Messages[len(req.Messages)-1]
	conv.AppendMessage(models.StoredMessage{
		Role:     string(llm.RoleUser),
		Content:  last.Content,
		ImageURL: last.ImageURL,
	})
	if err := p.conversations.Save(conv); err != nil {
		return nil, err
	}

	return &StreamSession{
		pipeline:     p,
		client:       client,
		conversation: conv,
		req:          req,
	}, nil
}

func (p *ChatPipeline) resolveConversation(user *models.User, req models.ChatRequest) (*models.Conversation, error) {
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return nil, ErrConversationNotFound
		}
		conv, err := p.conversations.Get(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversationNotFound
			}
			return nil, err
		}
		if conv.UserUUID != user.UUID {
			return nil, ErrConversationNotFound
		}
		return conv, nil
	}

	conv := &models.Conversation{
		UUID:     uuid.New(),
		UserUUID: user.UUID,
		Title:    titleFor(req.Messages[len(req.Messages)-1].Content),
	}
	if err := p.conversations.Insert(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func titleFor(content string) string {
	if content == "" {
		return "New Chat"
	}
	runes := []rune(content)
	if len(runes) > titleMaxRunes {
		runes = runes[:titleMaxRunes]
	}
	return string(runes)
}

// Run relays the provider stream to emit while accumulating the reply. On
// clean completion the accumulated text is persisted as one assistant
// message; on a mid-stream provider error the accumulator is discarded and
// a single error frame is emitted instead of the terminal sentinel.
func (s *StreamSession) Run(ctx context.Context, emit EmitFunc) error {
	// The conversation id goes out first so a newly created conversation
	// is addressable even if the provider call fails.
	if err := emit(StreamEvent{ConversationID: s.conversation.UUID.String()}); err != nil {
		return err
	}

	stream, err := s.client.StreamChat(ctx, s.req.Messages, s.req.Model, s.req.Parameters)
	if err != nil {
		metrics.Global().ProviderErrors.WithLabelValues(strings.ToLower(s.req.Provider)).Inc()
		return emit(StreamEvent{Error: err.Error()})
	}

	var accumulated strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			metrics.Global().ProviderErrors.WithLabelValues(strings.ToLower(s.req.Provider)).Inc()
			return emit(StreamEvent{Error: chunk.Err.Error()})
		}
		accumulated.WriteString(chunk.Content)
		metrics.Global().StreamFragments.Inc()
		if err := emit(StreamEvent{Content: chunk.Content}); err != nil {
			// Client disconnected; leave the conversation as already
			// persisted, same as a mid-stream failure.
			return err
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.conversation.AppendMessage(models.StoredMessage{
		Role:    string(llm.RoleAssistant),
		Content: accumulated.String(),
	})
	if err := s.pipeline.conversations.Save(s.conversation); err != nil {
		log.Error().Err(err).Str("conversation", s.conversation.UUID.String()).Msg("failed to persist assistant turn")
		return emit(StreamEvent{Error: err.Error()})
	}

	return emit(StreamEvent{Done: true})
}
