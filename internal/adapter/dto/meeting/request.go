package meeting

// CreateMeetingRequest represents the request to start a meeting
type CreateMeetingRequest struct {
	Title string `json:"title" validate:"max=255"`
}

// ListMeetingsRequest carries list paging from the query string
type ListMeetingsRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// UpdateTranscriptRequest replaces the transcript with an edited version
type UpdateTranscriptRequest struct {
	Transcript string `json:"transcript" validate:"notblank"`
}

// RenameSpeakersRequest maps existing labels to new names
type RenameSpeakersRequest struct {
	Mapping map[string]string `json:"mapping" validate:"required,min=1,dive,keys,notblank,endkeys,notblank,max=100"`
}

// AskRequest is one chat question about the transcript
type AskRequest struct {
	Question string `json:"question" validate:"notblank,max=4000"`
}

// DetectSpeakersRequest is a stateless label scan
type DetectSpeakersRequest struct {
	Transcript  string `json:"transcript"`
	MaxLabelLen int    `json:"max_label_len" validate:"omitempty,min=1,max=200"`
}

// StatelessRenameRequest renames labels in a transcript supplied by the caller
type StatelessRenameRequest struct {
	Transcript string            `json:"transcript"`
	Mapping    map[string]string `json:"mapping" validate:"required,dive,keys,notblank,endkeys,notblank,max=100"`
}
