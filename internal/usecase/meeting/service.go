package meeting

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stdErrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/domain/repositories"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/cache"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/metrics"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
	pkgai "github.com/johnquangdev/mai-recap/pkg/ai"
	"github.com/johnquangdev/mai-recap/pkg/jobcontext"
)

const (
	extractionCachePrefix = "extract:"
	chatHistoryLimit      = 20
)

// Storage is the object store holding uploaded audio and exported documents
type Storage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error
	DownloadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeletePrefix(ctx context.Context, prefix string) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Service is the meeting workflow: audio → transcript → record → documents → chat
type Service interface {
	CreateMeeting(ctx context.Context, title string) (*entities.Meeting, error)
	GetMeeting(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	ListMeetings(ctx context.Context, limit, offset int) ([]entities.Meeting, int64, error)
	DeleteMeeting(ctx context.Context, id uuid.UUID) error

	UploadAudio(ctx context.Context, id uuid.UUID, upload AudioUpload) (*entities.Meeting, *entities.Job, error)
	RequestTranscription(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	UpdateTranscript(ctx context.Context, id uuid.UUID, text string) (*entities.Meeting, error)

	DetectSpeakers(ctx context.Context, id uuid.UUID) ([]string, error)
	RenameSpeakers(ctx context.Context, id uuid.UUID, mapping map[string]string) (*speaker.RenameResult, error)

	Summarise(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	RenderMinutes(ctx context.Context, id uuid.UUID) (string, error)
	Export(ctx context.Context, id uuid.UUID, kind, format string) (*ExportResult, error)

	Ask(ctx context.Context, id uuid.UUID, question string) (*entities.ChatMessage, error)
	ChatHistory(ctx context.Context, id uuid.UUID) ([]entities.ChatMessage, error)

	StartWorkerPool(ctx context.Context, workerCount int) error
	StopWorkerPool() error
}

// AudioUpload is one recorded or uploaded audio file
type AudioUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Deps groups the collaborators of the meeting service
type Deps struct {
	Meetings    repositories.MeetingRepository
	Jobs        repositories.JobRepository
	Chats       repositories.ChatRepository
	Storage     Storage
	Cache       cache.Store
	LLM         pkgai.LLM
	Transcriber pkgai.Transcriber
	Renderer    *minutes.Renderer
	Normalizer  *speaker.Normalizer
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Options tunes timing of the service
type Options struct {
	CacheTTL     time.Duration // extraction results
	URLExpiry    time.Duration // presigned export links
	PollInterval time.Duration // worker queue polling
	JobTimeout   time.Duration // one transcription, retries included
	RetryDelay   time.Duration // first backoff between transcription attempts
}

type service struct {
	meetings    repositories.MeetingRepository
	jobs        repositories.JobRepository
	chats       repositories.ChatRepository
	storage     Storage
	cache       cache.Store
	llm         pkgai.LLM
	transcriber pkgai.Transcriber
	renderer    *minutes.Renderer
	normalizer  *speaker.Normalizer
	metrics     *metrics.Metrics
	logger      *zap.Logger
	opts        Options
	now         func() time.Time

	workerStopChan      chan struct{}
	workerWg            sync.WaitGroup
	isWorkerPoolRunning bool
	workerMutex         sync.Mutex
}

// NewService constructs the meeting service
func NewService(d Deps, opts Options) Service {
	if d.Renderer == nil {
		d.Renderer = minutes.NewRenderer(minutes.BuiltinDefaults())
	}
	if d.Normalizer == nil {
		d.Normalizer = speaker.New()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = time.Hour
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 20 * time.Minute
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = jobcontext.DefaultBaseDelay
	}

	return &service{
		meetings:    d.Meetings,
		jobs:        d.Jobs,
		chats:       d.Chats,
		storage:     d.Storage,
		cache:       d.Cache,
		llm:         d.LLM,
		transcriber: d.Transcriber,
		renderer:    d.Renderer,
		normalizer:  d.Normalizer,
		metrics:     d.Metrics,
		logger:      d.Logger,
		opts:        opts,
		now:         time.Now,
	}
}

// CreateMeeting starts an empty meeting
func (s *service) CreateMeeting(ctx context.Context, title string) (*entities.Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Meeting " + s.now().Format("02/01/2006 15:04")
	}

	m := entities.NewMeeting(title)
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, errors.ErrDBQueryFailed("create meeting", err)
	}

	s.logger.Info("📝 Meeting created", zap.String("meeting_id", m.ID.String()))
	return m, nil
}

// GetMeeting loads a meeting or returns ErrMeetingNotFound
func (s *service) GetMeeting(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("get meeting", err)
	}
	if m == nil {
		return nil, errors.ErrMeetingNotFound(id.String())
	}
	return m, nil
}

// ListMeetings returns a page of meetings, newest first
func (s *service) ListMeetings(ctx context.Context, limit, offset int) ([]entities.Meeting, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.meetings.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, errors.ErrDBQueryFailed("list meetings", err)
	}
	return list, total, nil
}

// DeleteMeeting removes the meeting, its stored objects, jobs and chat
func (s *service) DeleteMeeting(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetMeeting(ctx, id); err != nil {
		return err
	}

	if s.storage != nil {
		for _, prefix := range []string{audioPrefix(id), exportPrefix(id)} {
			if err := s.storage.DeletePrefix(ctx, prefix); err != nil {
				s.logger.Warn("⚠️ Failed to delete stored objects",
					zap.String("meeting_id", id.String()),
					zap.String("prefix", prefix),
					zap.Error(err),
				)
			}
		}
	}

	if err := s.meetings.Delete(ctx, id); err != nil {
		return errors.ErrDBQueryFailed("delete meeting", err)
	}

	s.logger.Info("🗑️ Meeting deleted", zap.String("meeting_id", id.String()))
	return nil
}

// UploadAudio stores the audio and queues a transcription job
func (s *service) UploadAudio(ctx context.Context, id uuid.UUID, upload AudioUpload) (*entities.Meeting, *entities.Job, error) {
	if upload.Reader == nil || upload.Size == 0 {
		return nil, nil, errors.ErrAudioInvalid("empty file")
	}

	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !m.CanTransitionTo(entities.MeetingStatusAudioUploaded) {
		return nil, nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusAudioUploaded))
	}

	br := bufio.NewReaderSize(upload.Reader, sniffLen)
	head, _ := br.Peek(sniffLen)
	ext, mimeType, ok := resolveAudioFormat(upload.Filename, upload.ContentType, head)
	if !ok {
		return nil, nil, errors.ErrAudioInvalid("unsupported format; use wav, mp3, m4a, ogg, flac or webm")
	}

	object := fmt.Sprintf("%s%d%s", audioPrefix(id), s.now().UnixNano(), ext)
	if err := s.storage.UploadFile(ctx, object, br, upload.Size, mimeType); err != nil {
		return nil, nil, errors.ErrAudioUploadFailed(id.String(), err)
	}

	if err := m.MarkAudioUploaded(object, mimeType); err != nil {
		return nil, nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusAudioUploaded))
	}
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, nil, errors.ErrDBQueryFailed("update meeting", err)
	}

	job := entities.NewTranscriptionJob(m.ID, object)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, nil, errors.ErrDBQueryFailed("create job", err)
	}

	s.logger.Info("🎙️ Audio stored, transcription queued",
		zap.String("meeting_id", id.String()),
		zap.String("job_id", job.ID.String()),
		zap.String("object", object),
		zap.Int64("size", upload.Size),
	)
	return m, job, nil
}

// RequestTranscription queues the stored audio again. An active job is returned as is.
func (s *service) RequestTranscription(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.HasAudio() {
		return nil, errors.ErrAudioInvalid("no audio uploaded")
	}

	latest, err := s.jobs.GetLatestByMeetingID(ctx, id)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("get job", err)
	}
	if latest != nil && latest.IsActive() {
		return latest, nil
	}

	contentType := ""
	if m.AudioContentType != nil {
		contentType = *m.AudioContentType
	}
	if err := m.MarkAudioUploaded(*m.AudioObject, contentType); err != nil {
		return nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusAudioUploaded))
	}
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, errors.ErrDBQueryFailed("update meeting", err)
	}

	job := entities.NewTranscriptionJob(m.ID, *m.AudioObject)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, errors.ErrDBQueryFailed("create job", err)
	}

	s.logger.Info("🔁 Transcription requeued",
		zap.String("meeting_id", id.String()),
		zap.String("job_id", job.ID.String()),
	)
	return job, nil
}

// UpdateTranscript replaces the transcript with a manual edit
func (s *service) UpdateTranscript(ctx context.Context, id uuid.UUID, text string) (*entities.Meeting, error) {
	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.SetTranscript(text, s.normalizer.Detect(text)); err != nil {
		return nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusTranscriptReady))
	}
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, errors.ErrDBQueryFailed("update meeting", err)
	}
	return m, nil
}

// DetectSpeakers lists the candidate speaker labels of the transcript
func (s *service) DetectSpeakers(ctx context.Context, id uuid.UUID) ([]string, error) {
	m, err := s.withTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Detect(m.Transcript), nil
}

// RenameSpeakers applies mapping to the transcript and saves it when anything changed
func (s *service) RenameSpeakers(ctx context.Context, id uuid.UUID, mapping map[string]string) (*speaker.RenameResult, error) {
	m, err := s.withTranscript(ctx, id)
	if err != nil {
		return nil, err
	}

	result := s.normalizer.Rename(m.Transcript, mapping)
	if !result.Changed() {
		return &result, nil
	}

	m.ReplaceTranscript(result.Text, s.normalizer.Detect(result.Text))
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, errors.ErrDBQueryFailed("update meeting", err)
	}
	s.metrics.SpeakerReplacements(result.Replacements)

	s.logger.Info("🏷️ Speakers renamed",
		zap.String("meeting_id", id.String()),
		zap.Int("replacements", result.Replacements),
	)
	return &result, nil
}

// Summarise extracts the structured record and generates the three documents
func (s *service) Summarise(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, err := s.withTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.CanTransitionTo(entities.MeetingStatusSummarised) {
		return nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusTranscriptReady))
	}
	if s.llm == nil {
		return nil, errors.ErrAIServiceUnavailable("llm")
	}

	raw, err := s.extract(ctx, m.Transcript)
	if err != nil {
		return nil, mapAIError(s.llm.Name(), err, errors.ErrAISummaryFailed)
	}
	record := minutes.DecodeRecord([]byte(raw))
	rendered := s.renderer.Render(record)
	s.metrics.MinutesRendered()

	var narrative, brief string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		narrative, err = s.generate(gctx, "narrative", NarrativePrompt(m.Transcript))
		return err
	})
	g.Go(func() error {
		var err error
		brief, err = s.generate(gctx, "brief", BriefPrompt(m.Transcript))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapAIError(s.llm.Name(), err, errors.ErrAISummaryFailed)
	}

	if err := m.MarkSummarised(record, rendered, strings.TrimSpace(narrative), strings.TrimSpace(brief)); err != nil {
		return nil, errors.ErrMeetingInvalidState(id.String(), string(m.Status), string(entities.MeetingStatusTranscriptReady))
	}
	if err := s.meetings.Update(ctx, m); err != nil {
		return nil, errors.ErrDBQueryFailed("update meeting", err)
	}

	s.logger.Info("✅ Meeting summarised",
		zap.String("meeting_id", id.String()),
		zap.Int("minutes_length", len(rendered)),
	)
	return m, nil
}

// extract runs the structured extraction, reusing a cached answer for an
// identical transcript
func (s *service) extract(ctx context.Context, transcript string) (string, error) {
	key := extractionCachePrefix + transcriptDigest(transcript)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			s.logger.Info("♻️ Using cached extraction", zap.String("cache_key", key))
			return cached, nil
		} else if err != nil {
			s.logger.Warn("⚠️ Extraction cache read failed", zap.Error(err))
		}
	}

	reply, err := s.generate(ctx, "extract", ExtractionPrompt(transcript))
	if err != nil {
		return "", err
	}
	raw := minutes.ExtractJSON(reply)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw, s.opts.CacheTTL); err != nil {
			s.logger.Warn("⚠️ Extraction cache write failed", zap.Error(err))
		}
	}
	return raw, nil
}

func (s *service) generate(ctx context.Context, operation, prompt string) (string, error) {
	started := s.now()
	reply, err := s.llm.Generate(ctx, prompt)
	s.metrics.ObserveAI(s.llm.Name(), operation, started, err)
	if err != nil {
		s.logger.Error("❌ Generation failed",
			zap.String("provider", s.llm.Name()),
			zap.String("operation", operation),
			zap.Error(err),
		)
		return "", err
	}
	return reply, nil
}

// RenderMinutes re-renders the stored record with the current defaults
func (s *service) RenderMinutes(ctx context.Context, id uuid.UUID) (string, error) {
	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return "", err
	}
	if m.Record == nil {
		return "", errors.ErrRecordMissing(id.String())
	}

	rendered := s.renderer.Render(*m.Record)
	s.metrics.MinutesRendered()
	if rendered != m.Minutes {
		m.Minutes = rendered
		m.UpdatedAt = s.now()
		if err := s.meetings.Update(ctx, m); err != nil {
			return "", errors.ErrDBQueryFailed("update meeting", err)
		}
	}
	return rendered, nil
}

// Ask answers a question about the transcript and records both turns
func (s *service) Ask(ctx context.Context, id uuid.UUID, question string) (*entities.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrInvalidArgument("question is required")
	}

	m, err := s.withTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, errors.ErrAIServiceUnavailable("llm")
	}

	history, err := s.chats.ListByMeetingID(ctx, id, chatHistoryLimit)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list chat", err)
	}

	reply, err := s.generate(ctx, "chat", ChatPrompt(m.Transcript, history, question))
	if err != nil {
		return nil, mapAIError(s.llm.Name(), err, errors.ErrAIChatFailed)
	}

	userMsg := entities.NewChatMessage(id, entities.ChatRoleUser, question)
	if err := s.chats.Create(ctx, userMsg); err != nil {
		return nil, errors.ErrDBQueryFailed("create chat message", err)
	}
	answer := entities.NewChatMessage(id, entities.ChatRoleAssistant, strings.TrimSpace(reply))
	// keep the answer strictly after the question when timestamps collide
	if !answer.CreatedAt.After(userMsg.CreatedAt) {
		answer.CreatedAt = userMsg.CreatedAt.Add(time.Microsecond)
	}
	if err := s.chats.Create(ctx, answer); err != nil {
		return nil, errors.ErrDBQueryFailed("create chat message", err)
	}
	return answer, nil
}

// ChatHistory returns the conversation of a meeting, oldest first
func (s *service) ChatHistory(ctx context.Context, id uuid.UUID) ([]entities.ChatMessage, error) {
	if _, err := s.GetMeeting(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := s.chats.ListByMeetingID(ctx, id, 0)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list chat", err)
	}
	return msgs, nil
}

func (s *service) withTranscript(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, err := s.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.HasTranscript() {
		return nil, errors.ErrTranscriptMissing(id.String())
	}
	return m, nil
}

// mapAIError turns provider failures into API errors
func mapAIError(provider string, err error, fallback func(error) errors.AppError) error {
	switch {
	case pkgai.IsQuotaExceeded(err):
		return errors.ErrAIQuotaExceeded()
	case pkgai.IsUnavailable(err), stdErrors.Is(err, pkgai.ErrNoAPIKey):
		return errors.ErrAIServiceUnavailable(provider)
	default:
		return fallback(err)
	}
}

func transcriptDigest(transcript string) string {
	sum := sha256.Sum256([]byte(transcript))
	return hex.EncodeToString(sum[:])
}

func audioPrefix(id uuid.UUID) string {
	return "audio/" + id.String() + "/"
}

func exportPrefix(id uuid.UUID) string {
	return "exports/" + id.String() + "/"
}
