package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/adapter/dto/common"
	meetingdto "github.com/johnquangdev/mai-recap/internal/adapter/dto/meeting"
	"github.com/johnquangdev/mai-recap/internal/adapter/presenter"
	"github.com/johnquangdev/mai-recap/internal/usecase/meeting"
)

// Meeting handles the meeting workflow endpoints
type Meeting struct {
	service        meeting.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewMeeting creates a new meeting handler
func NewMeeting(service meeting.Service, maxUploadBytes int64, logger *zap.Logger) *Meeting {
	return &Meeting{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Create starts a meeting
// POST /v1/meetings
func (h *Meeting) Create(c echo.Context) error {
	var req meetingdto.CreateMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.CreateMeeting(c.Request().Context(), req.Title)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m))
}

// List returns a page of meetings
// GET /v1/meetings?limit=&offset=
func (h *Meeting) List(c echo.Context) error {
	var req meetingdto.ListMeetingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	list, total, err := h.service.ListMeetings(c.Request().Context(), req.Limit, req.Offset)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, &common.ListResponse{
		Items: presenter.ToMeetingSummaryResponses(list),
		Pagination: &common.PaginationResponse{
			Limit:      req.Limit,
			Offset:     req.Offset,
			TotalItems: total,
		},
	})
}

// Get returns one meeting
// GET /v1/meetings/:id
func (h *Meeting) Get(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.GetMeeting(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Delete removes a meeting with its audio, exports and chat
// DELETE /v1/meetings/:id
func (h *Meeting) Delete(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.DeleteMeeting(c.Request().Context(), id); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &common.MessageResponse{Message: "Meeting deleted"})
}

// UploadAudio stores an audio file and queues its transcription
// POST /v1/meetings/:id/audio (multipart field "file")
func (h *Meeting) UploadAudio(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrAudioInvalid("multipart field \"file\" is required"))
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		return HandleError(h.logger, c, errors.ErrAudioInvalid(
			fmt.Sprintf("file exceeds the %d MB limit", h.maxUploadBytes>>20)))
	}

	f, err := fh.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrAudioInvalid("unreadable upload"))
	}
	defer f.Close()

	m, job, err := h.service.UploadAudio(c.Request().Context(), id, meeting.AudioUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Reader:      f,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return c.JSON(http.StatusAccepted, success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "transcription queued",
		Data: &meetingdto.UploadAudioResponse{
			Meeting: presenter.ToMeetingResponse(m),
			Job:     presenter.ToJobResponse(job),
		},
	})
}

// Transcribe queues the stored audio again
// POST /v1/meetings/:id/transcribe
func (h *Meeting) Transcribe(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	job, err := h.service.RequestTranscription(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToJobResponse(job))
}

// UpdateTranscript saves a manually edited transcript
// PUT /v1/meetings/:id/transcript
func (h *Meeting) UpdateTranscript(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.UpdateTranscriptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.UpdateTranscript(c.Request().Context(), id, req.Transcript)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Speakers lists speaker labels found in the transcript
// GET /v1/meetings/:id/speakers
func (h *Meeting) Speakers(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	speakers, err := h.service.DetectSpeakers(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &meetingdto.SpeakersResponse{Speakers: speakers})
}

// RenameSpeakers rewrites speaker labels in the stored transcript
// POST /v1/meetings/:id/speakers/rename
func (h *Meeting) RenameSpeakers(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.RenameSpeakersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.RenameSpeakers(c.Request().Context(), id, req.Mapping)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRenameResponse(*result))
}

// Summarise extracts the record and generates minutes and summaries
// POST /v1/meetings/:id/summarise
func (h *Meeting) Summarise(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.Summarise(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// Minutes re-renders the minutes from the stored record
// GET /v1/meetings/:id/minutes
func (h *Meeting) Minutes(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	text, err := h.service.RenderMinutes(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &meetingdto.MinutesResponse{Minutes: text})
}

// Export downloads minutes, narrative or brief as docx or txt
// GET /v1/meetings/:id/export?kind=minutes|narrative|brief&format=docx|txt
func (h *Meeting) Export(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.Export(c.Request().Context(), id, c.QueryParam("kind"), c.QueryParam("format"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if result.URL != "" {
		c.Response().Header().Set("X-Export-URL", result.URL)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Filename))
	return c.Blob(http.StatusOK, result.ContentType, result.Data)
}

// Ask answers a question about the transcript
// POST /v1/meetings/:id/chat
func (h *Meeting) Ask(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	var req meetingdto.AskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	answer, err := h.service.Ask(c.Request().Context(), id, req.Question)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToChatMessageResponse(answer))
}

// ChatHistory returns the stored conversation
// GET /v1/meetings/:id/chat
func (h *Meeting) ChatHistory(c echo.Context) error {
	id, err := meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	msgs, err := h.service.ChatHistory(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToChatMessageResponses(msgs))
}
