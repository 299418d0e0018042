package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

// JobRepository defines persistence operations for background jobs
type JobRepository interface {
	Create(ctx context.Context, job *entities.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	GetLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Job, error)
	ListForProcessing(ctx context.Context, limit int) ([]entities.Job, error)
	// Claim atomically moves a pending or retrying job to processing.
	// It returns false when another worker got there first.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, metadata entities.JobMetadata) error
	MarkRetrying(ctx context.Context, id uuid.UUID, errMsg string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	// ResetStale returns processing jobs started before cutoff to the queue
	ResetStale(ctx context.Context, cutoff time.Time) (int64, error)
}
