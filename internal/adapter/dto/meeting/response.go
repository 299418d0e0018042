package meeting

import (
	"time"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

// MeetingResponse represents a meeting in responses
type MeetingResponse struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Status     string                  `json:"status"`
	HasAudio   bool                    `json:"has_audio"`
	Transcript string                  `json:"transcript,omitempty"`
	Speakers   []string                `json:"speakers"`
	Record     *entities.MeetingRecord `json:"record,omitempty"`
	Minutes    string                  `json:"minutes,omitempty"`
	Narrative  string                  `json:"narrative,omitempty"`
	Brief      string                  `json:"brief,omitempty"`
	LastError  string                  `json:"last_error,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// MeetingSummaryResponse is the list view of a meeting
type MeetingSummaryResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobResponse represents a transcription job
type JobResponse struct {
	ID          string     `json:"id"`
	MeetingID   string     `json:"meeting_id"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UploadAudioResponse is returned once audio is stored and queued
type UploadAudioResponse struct {
	Meeting *MeetingResponse `json:"meeting"`
	Job     *JobResponse     `json:"job"`
}

// SpeakersResponse lists detected speaker labels
type SpeakersResponse struct {
	Speakers []string `json:"speakers"`
}

// RenameResponse reports the outcome of a rename
type RenameResponse struct {
	Replacements int            `json:"replacements"`
	PerLabel     map[string]int `json:"per_label"`
	Message      string         `json:"message"`
	Transcript   string         `json:"transcript"`
}

// MinutesResponse carries rendered minutes
type MinutesResponse struct {
	Minutes string `json:"minutes"`
}

// ChatMessageResponse is one turn of the chat
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
