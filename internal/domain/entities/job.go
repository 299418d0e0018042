package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobStatus represents the status of a background job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"    // Waiting for a worker
	JobStatusProcessing JobStatus = "processing" // Claimed by a worker
	JobStatusCompleted  JobStatus = "completed"  // Finished successfully
	JobStatusFailed     JobStatus = "failed"     // Failed after retries
	JobStatusRetrying   JobStatus = "retrying"   // Failed, will be picked up again
)

// JobType represents the type of background job
type JobType string

const (
	JobTypeTranscription JobType = "transcription" // Speech to text
)

// Job is a queued unit of background work for a meeting
type Job struct {
	ID          uuid.UUID                       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID                       `json:"meeting_id" gorm:"type:uuid;not null;index"`
	JobType     JobType                         `json:"job_type" gorm:"type:varchar(50);not null;index"`
	Status      JobStatus                       `json:"status" gorm:"type:varchar(50);not null;index;default:'pending'"`
	AudioObject string                          `json:"audio_object" gorm:"type:text;not null"`
	StartedAt   *time.Time                      `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time                      `json:"completed_at,omitempty" gorm:"type:timestamp"`
	RetryCount  int                             `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries  int                             `json:"max_retries" gorm:"type:integer;default:3"`
	LastError   *string                         `json:"last_error,omitempty" gorm:"type:text"`
	Metadata    datatypes.JSONType[JobMetadata] `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time                       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time                       `json:"updated_at" gorm:"autoUpdateTime"`
}

// JobMetadata stores additional details about a job run
type JobMetadata struct {
	Provider         string `json:"provider,omitempty"`
	TranscriptChars  int    `json:"transcript_chars,omitempty"`
	SpeakerCount     int    `json:"speaker_count,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
	// Superseded is set when the meeting moved on (manual edit, new upload)
	// before the transcript arrived, so it was discarded
	Superseded bool `json:"superseded,omitempty"`
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// NewTranscriptionJob creates a pending transcription job
func NewTranscriptionJob(meetingID uuid.UUID, audioObject string) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		JobType:     JobTypeTranscription,
		Status:      JobStatusPending,
		AudioObject: audioObject,
		MaxRetries:  3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsRetryable checks if the job can be attempted again
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// IsActive reports whether the job is queued or running
func (j *Job) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing || j.Status == JobStatusRetrying
}
