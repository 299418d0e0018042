package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

// ChatRepository stores the question-answering history of a meeting
type ChatRepository interface {
	Create(ctx context.Context, msg *entities.ChatMessage) error
	// ListByMeetingID returns the most recent limit messages, oldest first
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID, limit int) ([]entities.ChatMessage, error)
}
