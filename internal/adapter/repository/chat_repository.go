package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/domain/repositories"
)

var _ repositories.ChatRepository = (*ChatRepository)(nil)

// ChatRepository handles chat message data operations
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create stores a chat message
func (r *ChatRepository) Create(ctx context.Context, msg *entities.ChatMessage) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByMeetingID returns the latest messages in chronological order
func (r *ChatRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID, limit int) ([]entities.ChatMessage, error) {
	var msgs []entities.ChatMessage
	if limit <= 0 {
		limit = 100
	}
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
