package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StoredMessage is one persisted conversation turn. Messages are immutable
// once stored; the conversation only ever grows by appending.
type StoredMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation keeps its full message history as a JSON document column,
// mirroring the one-document-per-conversation shape the frontend expects.
type Conversation struct {
	UUID     uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"uuid"`
	UserUUID uuid.UUID                          `gorm:"type:uuid;index;not null" json:"user_uuid"`
	Title    string                             `gorm:"not null;default:New Chat" json:"title"`
	Messages datatypes.JSONSlice[StoredMessage] `json:"messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendMessage adds one turn and refreshes UpdatedAt. Persisting is the
// caller's job.
func (c *Conversation) AppendMessage(m StoredMessage) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = time.Now().UTC()
}
