package repo

import (
	"openchatllm-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepo struct {
	db *gorm.DB
}

type ConversationRepoInterface interface {
	Insert(conv *models.Conversation) error
	Get(id uuid.UUID) (*models.Conversation, error)
	Save(conv *models.Conversation) error
	FindByUser(userID uuid.UUID) ([]models.Conversation, error)
	Delete(conv *models.Conversation) error
}

func NewConversationRepository(db *gorm.DB) ConversationRepoInterface {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Insert(conv *models.Conversation) error {
	if conv.UUID == uuid.Nil {
		conv.UUID = uuid.New()
	}
	return r.db.Create(conv).Error
}

func (r *ConversationRepo) Get(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.First(&conv, "uuid = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) Save(conv *models.Conversation) error {
	return r.db.Save(conv).Error
}

// FindByUser returns the user's conversations newest-activity first.
func (r *ConversationRepo) FindByUser(userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Where("user_uuid = ?", userID).
		Order("updated_at desc").
		Find(&convs).Error
	return convs, err
}

func (r *ConversationRepo) Delete(conv *models.Conversation) error {
	return r.db.Delete(conv).Error
}
