package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/domain/repositories"
)

var _ repositories.JobRepository = (*JobRepository)(nil)

// JobRepository handles background job data operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job
func (r *JobRepository) Create(ctx context.Context, job *entities.Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	var job entities.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetLatestByMeetingID retrieves the latest job for a meeting
func (r *JobRepository) GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Job, error) {
	var job entities.Job
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListForProcessing retrieves jobs that are ready for processing
func (r *JobRepository) ListForProcessing(ctx context.Context, limit int) ([]entities.Job, error) {
	var jobs []entities.Job
	if limit == 0 {
		limit = 10
	}
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []entities.JobStatus{entities.JobStatusPending, entities.JobStatusRetrying}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Claim atomically marks a job as processing
func (r *JobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ? AND status IN ?", id, []entities.JobStatus{entities.JobStatusPending, entities.JobStatusRetrying}).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkCompleted marks a job as completed
func (r *JobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, metadata entities.JobMetadata) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.Job{ID: id}).
		Select("status", "metadata", "completed_at", "last_error", "updated_at").
		Updates(&entities.Job{
			Status:      entities.JobStatusCompleted,
			Metadata:    datatypes.NewJSONType(metadata),
			CompletedAt: &now,
			UpdatedAt:   now,
		}).Error
}

// MarkRetrying increments the retry count and puts the job back in the queue
func (r *JobRepository) MarkRetrying(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"status":      entities.JobStatusRetrying,
			"last_error":  errMsg,
			"updated_at":  time.Now(),
		}).Error
}

// MarkFailed marks a job as failed with error message
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       entities.JobStatusFailed,
			"last_error":   errMsg,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

// ResetStale requeues jobs left in processing by a crashed worker
func (r *JobRepository) ResetStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.Job{}).
		Where("status = ? AND started_at < ?", entities.JobStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusRetrying,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
