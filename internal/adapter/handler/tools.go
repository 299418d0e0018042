package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	meetingdto "github.com/johnquangdev/mai-recap/internal/adapter/dto/meeting"
	"github.com/johnquangdev/mai-recap/internal/adapter/presenter"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/metrics"
	"github.com/johnquangdev/mai-recap/internal/usecase/export"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
)

const maxRecordBytes = 1 << 20

// Tools exposes the renderer and normalizer as stateless transforms
type Tools struct {
	renderer   *minutes.Renderer
	normalizer *speaker.Normalizer
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewTools creates the stateless transform handler
func NewTools(renderer *minutes.Renderer, normalizer *speaker.Normalizer, m *metrics.Metrics, logger *zap.Logger) *Tools {
	return &Tools{
		renderer:   renderer,
		normalizer: normalizer,
		metrics:    m,
		logger:     logger,
	}
}

// RenderMinutes renders a JSON meeting record. The body is taken as is, so
// fenced or chatty model output is accepted too.
// POST /v1/minutes/render[?format=docx]
func (h *Tools) RenderMinutes(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRecordBytes+1))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if len(raw) > maxRecordBytes {
		return HandleError(h.logger, c, errors.ErrInvalidPayload().
			WithDetail("body", fmt.Sprintf("must be at most %d bytes", maxRecordBytes)))
	}

	text := h.renderer.RenderJSON(string(raw))
	h.metrics.MinutesRendered()

	switch strings.ToLower(c.QueryParam("format")) {
	case "", "json":
		return HandleSuccess(h.logger, c, &meetingdto.MinutesResponse{Minutes: text})
	case "txt":
		return c.Blob(http.StatusOK, export.ContentTypeText, []byte(text))
	case "docx":
		data, err := export.BuildDOCX("", text)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrExportFailed("docx", err))
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="minutes.docx"`)
		return c.Blob(http.StatusOK, export.ContentTypeDOCX, data)
	default:
		return HandleError(h.logger, c, errors.ErrExportUnsupported("minutes", c.QueryParam("format")))
	}
}

// DetectSpeakers lists speaker labels in a supplied transcript
// POST /v1/speakers/detect
func (h *Tools) DetectSpeakers(c echo.Context) error {
	var req meetingdto.DetectSpeakersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	n := h.normalizer
	if req.MaxLabelLen > 0 {
		n = speaker.New(speaker.WithMaxLabelLen(req.MaxLabelLen))
	}
	return HandleSuccess(h.logger, c, &meetingdto.SpeakersResponse{Speakers: n.Detect(req.Transcript)})
}

// RenameSpeakers rewrites labels in a supplied transcript
// POST /v1/speakers/rename
func (h *Tools) RenameSpeakers(c echo.Context) error {
	var req meetingdto.StatelessRenameRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result := h.normalizer.Rename(req.Transcript, req.Mapping)
	h.metrics.SpeakerReplacements(result.Replacements)
	return HandleSuccess(h.logger, c, presenter.ToRenameResponse(result))
}
