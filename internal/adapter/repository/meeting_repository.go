package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/domain/repositories"
)

var _ repositories.MeetingRepository = (*MeetingRepository)(nil)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Create(meeting).Error
}

// GetByID retrieves a meeting by ID
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// List returns a page of meetings, newest first, with the total count
func (r *MeetingRepository) List(ctx context.Context, limit, offset int) ([]entities.Meeting, int64, error) {
	var (
		meetings []entities.Meeting
		total    int64
	)
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&entities.Meeting{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Transcripts can be large; list views only need the summary columns
	if err := query.
		Select("id", "title", "status", "audio_object", "audio_content_type", "speakers", "last_error", "created_at", "updated_at").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error; err != nil {
		return nil, 0, err
	}
	return meetings, total, nil
}

// Update saves every column of the meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Save(meeting).Error
}

// UpdateStatusIf performs a compare-and-set on the meeting status
func (r *MeetingRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, next entities.MeetingStatus, from ...entities.MeetingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a meeting; jobs and chat messages cascade
func (r *MeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entities.Meeting{}, "id = ?", id).Error
}
