package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User owns conversations and carries per-provider preferences. Users are
// never hard-deleted.
type User struct {
	UUID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"uuid"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"index" json:"email,omitempty"`
	HashedPassword string    `gorm:"not null" json:"-"`

	// Preferences
	APIKeys          datatypes.JSONType[map[string]string] `json:"api_keys"`
	BaseURLs         datatypes.JSONType[map[string]string] `json:"base_urls"`
	SelectedProvider string                                `gorm:"default:openai" json:"selected_provider"`
	SelectedModel    string                                `gorm:"default:gpt-4o" json:"selected_model"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultBaseURLs seeds a new user's endpoint overrides with the local
// vLLM preset.
func DefaultBaseURLs() datatypes.JSONType[map[string]string] {
	return datatypes.NewJSONType(map[string]string{"vllm": "http://localhost:8000/v1"})
}
