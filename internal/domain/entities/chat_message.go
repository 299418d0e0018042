package entities

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the question-answering chat over a transcript
type ChatMessage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Role      ChatRole  `json:"role" gorm:"type:varchar(20);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName specifies the table name for GORM
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewChatMessage creates a chat message
func NewChatMessage(meetingID uuid.UUID, role ChatRole, content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
