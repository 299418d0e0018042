package presenter

import (
	"github.com/johnquangdev/mai-recap/internal/adapter/dto/meeting"
	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	speakers := m.Speakers
	if speakers == nil {
		speakers = []string{}
	}

	response := &meeting.MeetingResponse{
		ID:         m.ID.String(),
		Title:      m.Title,
		Status:     string(m.Status),
		HasAudio:   m.HasAudio(),
		Transcript: m.Transcript,
		Speakers:   speakers,
		Record:     m.Record,
		Minutes:    m.Minutes,
		Narrative:  m.Narrative,
		Brief:      m.Brief,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.LastError != nil {
		response.LastError = *m.LastError
	}
	return response
}

// ToMeetingSummaryResponses converts a page of meetings to list items
func ToMeetingSummaryResponses(list []entities.Meeting) []*meeting.MeetingSummaryResponse {
	out := make([]*meeting.MeetingSummaryResponse, 0, len(list))
	for i := range list {
		m := &list[i]
		out = append(out, &meeting.MeetingSummaryResponse{
			ID:        m.ID.String(),
			Title:     m.Title,
			Status:    string(m.Status),
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}
	return out
}

// ToJobResponse converts a Job entity to JobResponse DTO
func ToJobResponse(j *entities.Job) *meeting.JobResponse {
	if j == nil {
		return nil
	}

	response := &meeting.JobResponse{
		ID:          j.ID.String(),
		MeetingID:   j.MeetingID.String(),
		Status:      string(j.Status),
		RetryCount:  j.RetryCount,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
	if j.LastError != nil {
		response.LastError = *j.LastError
	}
	return response
}

// ToRenameResponse reports a rename with its user-facing summary line
func ToRenameResponse(r speaker.RenameResult) *meeting.RenameResponse {
	perLabel := r.PerLabel
	if perLabel == nil {
		perLabel = map[string]int{}
	}
	return &meeting.RenameResponse{
		Replacements: r.Replacements,
		PerLabel:     perLabel,
		Message:      r.Summary(),
		Transcript:   r.Text,
	}
}

// ToChatMessageResponses converts chat history
func ToChatMessageResponses(msgs []entities.ChatMessage) []*meeting.ChatMessageResponse {
	out := make([]*meeting.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, ToChatMessageResponse(&msgs[i]))
	}
	return out
}

// ToChatMessageResponse converts one chat message
func ToChatMessageResponse(msg *entities.ChatMessage) *meeting.ChatMessageResponse {
	return &meeting.ChatMessageResponse{
		ID:        msg.ID.String(),
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
