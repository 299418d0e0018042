package meeting

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/usecase/export"
)

// Export kinds and formats
const (
	KindMinutes   = "minutes"
	KindNarrative = "narrative"
	KindBrief     = "brief"

	FormatDOCX = "docx"
	FormatText = "txt"
)

// ExportResult is a generated document ready to be downloaded
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	// URL is a presigned link to the stored copy; empty for plain text
	URL string
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Export builds one of the meeting documents as docx or plain text
func (s *service) Export(ctx context.Context, id uuid.UUID, kind, format string) (*ExportResult, error) {
	kind, format = strings.ToLower(strings.TrimSpace(kind)), strings.ToLower(strings.TrimSpace(format))
	if kind == "" {
		kind = KindMinutes
	}
	if format == "" {
		format = FormatDOCX
	}
	if format != FormatDOCX && format != FormatText {
		return nil, errors.ErrExportUnsupported(kind, format)
	}

	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	var text, docTitle string
	switch kind {
	case KindMinutes:
		text = m.Minutes
		if text == "" && m.Record != nil {
			text = s.renderer.Render(*m.Record)
		}
	case KindNarrative:
		text, docTitle = m.Narrative, "Meeting Summary"
	case KindBrief:
		text, docTitle = m.Brief, "Brief Summary (Decisions & Actions)"
	default:
		return nil, errors.ErrExportUnsupported(kind, format)
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrRecordMissing(id.String())
	}

	base := exportBasename(m.Title, kind)
	if format == FormatText {
		return &ExportResult{
			Filename:    base + ".txt",
			ContentType: export.ContentTypeText,
			Data:        []byte(text),
		}, nil
	}

	var data []byte
	if kind == KindMinutes {
		data, err = export.BuildDOCX("", text)
	} else {
		data, err = export.BuildPlainDOCX(docTitle+": "+m.Title, text)
	}
	if err != nil {
		return nil, errors.ErrExportFailed(format, err)
	}

	result := &ExportResult{
		Filename:    base + ".docx",
		ContentType: export.ContentTypeDOCX,
		Data:        data,
	}

	if s.storage != nil {
		object := fmt.Sprintf("%s%s-%d.docx", exportPrefix(id), kind, s.now().Unix())
		if err := s.storage.UploadBytes(ctx, object, data, export.ContentTypeDOCX); err != nil {
			s.logger.Warn("⚠️ Failed to store export",
				zap.String("meeting_id", id.String()),
				zap.String("object", object),
				zap.Error(err),
			)
			return result, nil
		}
		if url, err := s.storage.GetFileURL(ctx, object, s.opts.URLExpiry); err == nil {
			result.URL = url
		} else {
			s.logger.Warn("⚠️ Failed to presign export", zap.String("object", object), zap.Error(err))
		}
	}
	return result, nil
}

// exportBasename is a filesystem-safe name such as "Budget_Review_minutes"
func exportBasename(title, kind string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(title, "_"), "_")
	if name == "" {
		name = "meeting"
	}
	if len(name) > 60 {
		name = strings.TrimRight(name[:60], "_")
	}
	return name + "_" + kind
}
