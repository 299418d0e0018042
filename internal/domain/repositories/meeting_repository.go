package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

// MeetingRepository defines persistence operations for meetings.
// Lookups return (nil, nil) when the meeting does not exist.
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	List(ctx context.Context, limit, offset int) ([]entities.Meeting, int64, error)
	Update(ctx context.Context, meeting *entities.Meeting) error
	// UpdateStatusIf moves a meeting to next only while it is still in one of from
	UpdateStatusIf(ctx context.Context, id uuid.UUID, next entities.MeetingStatus, from ...entities.MeetingStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
