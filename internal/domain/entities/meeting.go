package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus is the processing stage of a meeting
type MeetingStatus string

const (
	MeetingStatusCreated         MeetingStatus = "created"          // No audio or transcript yet
	MeetingStatusAudioUploaded   MeetingStatus = "audio_uploaded"   // Audio stored, transcription queued
	MeetingStatusTranscribing    MeetingStatus = "transcribing"     // Claimed by a transcription worker
	MeetingStatusTranscriptReady MeetingStatus = "transcript_ready" // Transcript available for review
	MeetingStatusSummarised      MeetingStatus = "summarised"       // Record, minutes and summaries generated
	MeetingStatusFailed          MeetingStatus = "failed"           // Transcription failed
)

var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusCreated:         {MeetingStatusAudioUploaded, MeetingStatusTranscriptReady},
	MeetingStatusAudioUploaded:   {MeetingStatusAudioUploaded, MeetingStatusTranscribing, MeetingStatusTranscriptReady},
	MeetingStatusTranscribing:    {MeetingStatusTranscriptReady, MeetingStatusFailed, MeetingStatusAudioUploaded},
	MeetingStatusTranscriptReady: {MeetingStatusAudioUploaded, MeetingStatusTranscriptReady, MeetingStatusSummarised},
	MeetingStatusSummarised:      {MeetingStatusAudioUploaded, MeetingStatusTranscriptReady, MeetingStatusSummarised},
	MeetingStatusFailed:          {MeetingStatusAudioUploaded, MeetingStatusTranscribing, MeetingStatusTranscriptReady},
}

// Meeting is the caller-owned state of one recording: audio, transcript,
// extracted record and rendered documents
type Meeting struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title            string         `json:"title" gorm:"type:varchar(255);not null"`
	Status           MeetingStatus  `json:"status" gorm:"type:varchar(50);not null;index;default:'created'"`
	AudioObject      *string        `json:"audio_object,omitempty" gorm:"type:text"`
	AudioContentType *string        `json:"audio_content_type,omitempty" gorm:"type:varchar(100)"`
	Transcript       string         `json:"transcript" gorm:"type:text"`
	Speakers         []string       `json:"speakers" gorm:"type:jsonb;serializer:json"`
	Record           *MeetingRecord `json:"record,omitempty" gorm:"type:jsonb;serializer:json"`
	Minutes          string         `json:"minutes,omitempty" gorm:"type:text"`
	Narrative        string         `json:"narrative,omitempty" gorm:"type:text"`
	Brief            string         `json:"brief,omitempty" gorm:"type:text"`
	LastError        *string        `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a new meeting
func NewMeeting(title string) *Meeting {
	now := time.Now()
	return &Meeting{
		ID:        uuid.New(),
		Title:     title,
		Status:    MeetingStatusCreated,
		Speakers:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo reports whether the meeting may move to next
func (m *Meeting) CanTransitionTo(next MeetingStatus) bool {
	for _, s := range meetingTransitions[m.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (m *Meeting) transition(next MeetingStatus) error {
	if !m.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	m.Status = next
	m.UpdatedAt = time.Now()
	return nil
}

// HasAudio reports whether audio has been stored
func (m *Meeting) HasAudio() bool {
	return m.AudioObject != nil && *m.AudioObject != ""
}

// HasTranscript reports whether a non-blank transcript is present
func (m *Meeting) HasTranscript() bool {
	for _, r := range m.Transcript {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}

// MarkAudioUploaded records the stored audio object
func (m *Meeting) MarkAudioUploaded(object, contentType string) error {
	if err := m.transition(MeetingStatusAudioUploaded); err != nil {
		return err
	}
	m.AudioObject = &object
	m.AudioContentType = &contentType
	m.LastError = nil
	return nil
}

// MarkTranscribing marks the meeting as claimed by a worker
func (m *Meeting) MarkTranscribing() error {
	return m.transition(MeetingStatusTranscribing)
}

// SetTranscript stores a transcript and its detected speakers
func (m *Meeting) SetTranscript(text string, speakers []string) error {
	if err := m.transition(MeetingStatusTranscriptReady); err != nil {
		return err
	}
	if speakers == nil {
		speakers = []string{}
	}
	m.Transcript = text
	m.Speakers = speakers
	m.LastError = nil
	return nil
}

// ReplaceTranscript rewrites the transcript text without changing status
func (m *Meeting) ReplaceTranscript(text string, speakers []string) {
	if speakers == nil {
		speakers = []string{}
	}
	m.Transcript = text
	m.Speakers = speakers
	m.UpdatedAt = time.Now()
}

// MarkSummarised stores the extracted record and generated documents
func (m *Meeting) MarkSummarised(record MeetingRecord, minutes, narrative, brief string) error {
	if err := m.transition(MeetingStatusSummarised); err != nil {
		return err
	}
	m.Record = &record
	m.Minutes = minutes
	m.Narrative = narrative
	m.Brief = brief
	return nil
}

// MarkFailed records a transcription failure
func (m *Meeting) MarkFailed(errMsg string) error {
	if err := m.transition(MeetingStatusFailed); err != nil {
		return err
	}
	m.LastError = &errMsg
	return nil
}
