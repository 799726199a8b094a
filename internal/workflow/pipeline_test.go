package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"openchatllm-backend/internal/llm"
	"openchatllm-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memConversationRepo struct {
	convs map[uuid.UUID]*models.Conversation
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{convs: map[uuid.UUID]*models.Conversation{}}
}

func (r *memConversationRepo) Insert(conv *models.Conversation) error {
	if conv.UUID == uuid.Nil {
		conv.UUID = uuid.New()
	}
	cp := *conv
	r.convs[conv.UUID] = &cp
	return nil
}

func (r *memConversationRepo) Get(id uuid.UUID) (*models.Conversation, error) {
	conv, ok := r.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *conv
	return &cp, nil
}

func (r *memConversationRepo) Save(conv *models.Conversation) error {
	cp := *conv
	r.convs[conv.UUID] = &cp
	return nil
}

func (r *memConversationRepo) FindByUser(userID uuid.UUID) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conv := range r.convs {
		if conv.UserUUID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *memConversationRepo) Delete(conv *models.Conversation) error {
	delete(r.convs, conv.UUID)
	return nil
}

type stubClient struct {
	chatResp *llm.ChatResponse
	chatErr  error
	chunks   []llm.StreamChunk
	onStream func()
}

func (s *stubClient) Chat(ctx context.Context, messages []llm.ChatMessage, model string, params map[string]any) (*llm.ChatResponse, error) {
	return s.chatResp, s.chatErr
}

func (s *stubClient) StreamChat(ctx context.Context, messages []llm.ChatMessage, model string, params map[string]any) (<-chan llm.StreamChunk, error) {
	if s.onStream != nil {
		s.onStream()
	}
	out := make(chan llm.StreamChunk, len(s.chunks))
	for _, chunk := range s.chunks {
		out <- chunk
	}
	close(out)
	return out, nil
}

func (s *stubClient) ListModels(ctx context.Context) ([]string, error) {
	return []string{"stub-model"}, nil
}

func stubRegistry(client llm.Client) *llm.Registry {
	return llm.NewRegistryFrom(map[string]llm.Factory{
		"stub": func(ctx context.Context, apiKey, baseURL string) (llm.Client, error) {
			return client, nil
		},
	})
}

func testUser() *models.User {
	return &models.User{UUID: uuid.New(), Username: "alice"}
}

func collectEvents(t *testing.T, session *StreamSession) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	err := session.Run(context.Background(), func(ev StreamEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return events
}

func TestChatSingleShot(t *testing.T) {
	client := &stubClient{chatResp: &llm.ChatResponse{Content: "hello", Role: llm.RoleAssistant}}
	p := NewChatPipeline(stubRegistry(client), newMemConversationRepo())

	resp, err := p.Chat(context.Background(), models.ChatRequest{
		Model:    "gpt-4o",
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Content != "hello" || resp.Role != llm.RoleAssistant {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChatUnsupportedProvider(t *testing.T) {
	p := NewChatPipeline(stubRegistry(&stubClient{}), newMemConversationRepo())
	_, err := p.Chat(context.Background(), models.ChatRequest{Provider: "nope"})
	if !errors.Is(err, llm.ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestStreamHappyPath(t *testing.T) {
	repo := newMemConversationRepo()
	client := &stubClient{chunks: []llm.StreamChunk{{Content: "Hel"}, {Content: "lo"}}}
	p := NewChatPipeline(stubRegistry(client), repo)
	user := testUser()

	session, err := p.PrepareStream(context.Background(), user, models.ChatRequest{
		Model:    "gpt-4o",
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	events := collectEvents(t, session)

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[0].ConversationID == "" {
		t.Fatalf("first event must carry the conversation id: %+v", events[0])
	}
	if events[1].Content != "Hel" || events[2].Content != "lo" {
		t.Fatalf("unexpected content frames: %+v", events)
	}
	if !events[3].Done {
		t.Fatalf("expected terminal sentinel, got %+v", events[3])
	}

	convID := uuid.MustParse(events[0].ConversationID)
	conv, err := repo.Get(convID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(conv.Messages))
	}
	if conv.Messages[1].Role != "assistant" || conv.Messages[1].Content != "Hello" {
		t.Fatalf("fragments must concatenate without separators, got %+v", conv.Messages[1])
	}
}

func TestStreamPersistsUserTurnBeforeProviderCall(t *testing.T) {
	repo := newMemConversationRepo()
	var persistedAtCall int
	client := &stubClient{chunks: []llm.StreamChunk{{Content: "ok"}}}
	p := NewChatPipeline(stubRegistry(client), repo)
	user := testUser()

	client.onStream = func() {
		for _, conv := range repo.convs {
			persistedAtCall = len(conv.Messages)
		}
	}

	session, err := p.PrepareStream(context.Background(), user, models.ChatRequest{
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	collectEvents(t, session)

	if persistedAtCall != 1 {
		t.Fatalf("user turn not persisted before provider call (saw %d messages)", persistedAtCall)
	}
}

func TestStreamMidStreamErrorDiscardsAssistantTurn(t *testing.T) {
	repo := newMemConversationRepo()
	client := &stubClient{chunks: []llm.StreamChunk{
		{Content: "par"},
		{Err: errors.New("upstream exploded")},
	}}
	p := NewChatPipeline(stubRegistry(client), repo)

	session, err := p.PrepareStream(context.Background(), testUser(), models.ChatRequest{
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	events := collectEvents(t, session)

	var errorFrames, doneFrames int
	for _, ev := range events {
		if ev.Error != "" {
			errorFrames++
			if ev.Error != "upstream exploded" {
				t.Fatalf("error message not verbatim: %q", ev.Error)
			}
		}
		if ev.Done {
			doneFrames++
		}
	}
	if errorFrames != 1 {
		t.Fatalf("expected exactly one error frame, got %d", errorFrames)
	}
	if doneFrames != 0 {
		t.Fatalf("terminal sentinel must not follow an error")
	}

	conv, err := repo.Get(uuid.MustParse(events[0].ConversationID))
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != "user" {
		t.Fatalf("partial assistant output must be discarded, got %+v", conv.Messages)
	}
}

func TestStreamOwnershipCheck(t *testing.T) {
	repo := newMemConversationRepo()
	owner := testUser()
	conv := &models.Conversation{UUID: uuid.New(), UserUUID: owner.UUID, Title: "theirs"}
	if err := repo.Insert(conv); err != nil {
		t.Fatalf("insert: %v", err)
	}

	p := NewChatPipeline(stubRegistry(&stubClient{}), repo)
	intruder := testUser()

	_, err := p.PrepareStream(context.Background(), intruder, models.ChatRequest{
		Provider:       "stub",
		ConversationID: conv.UUID.String(),
		Messages:       []llm.ChatMessage{{Role: llm.RoleUser, Content: "gimme"}},
	})
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected not-found for foreign conversation, got %v", err)
	}
}

func TestStreamNewConversationTitle(t *testing.T) {
	repo := newMemConversationRepo()
	p := NewChatPipeline(stubRegistry(&stubClient{}), repo)
	long := strings.Repeat("x", 80)

	session, err := p.PrepareStream(context.Background(), testUser(), models.ChatRequest{
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: long}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if got := session.conversation.Title; got != strings.Repeat("x", 50) {
		t.Fatalf("title must be the first 50 characters, got %d chars", len(got))
	}
}

func TestStreamRequiresMessages(t *testing.T) {
	p := NewChatPipeline(stubRegistry(&stubClient{}), newMemConversationRepo())
	_, err := p.PrepareStream(context.Background(), testUser(), models.ChatRequest{Provider: "stub"})
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestStreamStopsWhenClientGoesAway(t *testing.T) {
	repo := newMemConversationRepo()
	client := &stubClient{chunks: []llm.StreamChunk{{Content: "a"}, {Content: "b"}, {Content: "c"}}}
	p := NewChatPipeline(stubRegistry(client), repo)

	session, err := p.PrepareStream(context.Background(), testUser(), models.ChatRequest{
		Provider: "stub",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	gone := errors.New("connection reset")
	seen := 0
	err = session.Run(context.Background(), func(ev StreamEvent) error {
		seen++
		if seen >= 2 { // conversation-id frame plus one content frame
			return gone
		}
		return nil
	})
	if !errors.Is(err, gone) {
		t.Fatalf("expected emit error to propagate, got %v", err)
	}

	conv, getErr := repo.Get(session.conversation.UUID)
	if getErr != nil {
		t.Fatalf("get conversation: %v", getErr)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("disconnected stream must not persist an assistant turn, got %d messages", len(conv.Messages))
	}
}
