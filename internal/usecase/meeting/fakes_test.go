package meeting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/mai-recap/internal/domain/entities"
)

type fakeMeetings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]entities.Meeting
}

func newFakeMeetings() *fakeMeetings {
	return &fakeMeetings{rows: map[uuid.UUID]entities.Meeting{}}
}

func (f *fakeMeetings) Create(_ context.Context, m *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMeetings) GetByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMeetings) List(_ context.Context, limit, offset int) ([]entities.Meeting, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Meeting, 0, len(f.rows))
	for _, m := range f.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []entities.Meeting{}, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeMeetings) Update(_ context.Context, m *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMeetings) UpdateStatusIf(_ context.Context, id uuid.UUID, next entities.MeetingStatus, from ...entities.MeetingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if m.Status == st {
			m.Status = next
			f.rows[id] = m
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMeetings) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeJobs struct {
	mu   sync.Mutex
	rows []*entities.Job
}

func (f *fakeJobs) find(id uuid.UUID) *entities.Job {
	for _, j := range f.rows {
		if j.ID == id {
			return j
		}
	}
	return nil
}

func (f *fakeJobs) Create(_ context.Context, job *entities.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (*entities.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j := f.find(id); j != nil {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeJobs) GetLatestByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].MeetingID == meetingID {
			cp := *f.rows[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeJobs) ListForProcessing(_ context.Context, limit int) ([]entities.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Job
	for _, j := range f.rows {
		if j.Status == entities.JobStatusPending || j.Status == entities.JobStatusRetrying {
			out = append(out, *j)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobs) Claim(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.find(id)
	if j == nil || (j.Status != entities.JobStatusPending && j.Status != entities.JobStatusRetrying) {
		return false, nil
	}
	now := time.Now()
	j.Status = entities.JobStatusProcessing
	j.StartedAt = &now
	return true, nil
}

func (f *fakeJobs) MarkCompleted(_ context.Context, id uuid.UUID, metadata entities.JobMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j := f.find(id); j != nil {
		j.Status = entities.JobStatusCompleted
		j.Metadata = datatypes.NewJSONType(metadata)
	}
	return nil
}

func (f *fakeJobs) MarkRetrying(_ context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j := f.find(id); j != nil {
		j.Status = entities.JobStatusRetrying
		j.RetryCount++
		j.LastError = &errMsg
	}
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j := f.find(id); j != nil {
		j.Status = entities.JobStatusFailed
		j.LastError = &errMsg
	}
	return nil
}

func (f *fakeJobs) ResetStale(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, j := range f.rows {
		if j.Status == entities.JobStatusProcessing && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			j.Status = entities.JobStatusRetrying
			n++
		}
	}
	return n, nil
}

type fakeChats struct {
	mu   sync.Mutex
	msgs []entities.ChatMessage
}

func (f *fakeChats) Create(_ context.Context, msg *entities.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeChats) ListByMeetingID(_ context.Context, meetingID uuid.UUID, limit int) ([]entities.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.ChatMessage
	for _, m := range f.msgs {
		if m.MeetingID == meetingID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) UploadFile(_ context.Context, name string, r io.Reader, _ int64, contentType string) error {
	if f.failPut {
		return fmt.Errorf("storage offline")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	f.types[name] = contentType
	return nil
}

func (f *fakeStorage) UploadBytes(ctx context.Context, name string, data []byte, contentType string) error {
	return f.UploadFile(ctx, name, bytes.NewReader(data), int64(len(data)), contentType)
}

func (f *fakeStorage) DownloadFile(_ context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) DeletePrefix(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			delete(f.objects, k)
		}
	}
	return nil
}

func (f *fakeStorage) GetFileURL(_ context.Context, name string, _ time.Duration) (string, error) {
	return "https://files.test/" + name, nil
}

func (f *fakeStorage) keys(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// fakeLLM answers by prompt kind
type fakeLLM struct {
	mu      sync.Mutex
	calls   map[string]int
	answers map[string]string
	err     error
}

func newFakeLLM() *fakeLLM {
	return &fakeLLM{
		calls: map[string]int{},
		answers: map[string]string{
			"extract":   "```json\n{\"meetingTitle\": \"Budget Review\", \"attendees\": [\"A. Murphy\"], \"majorProjects\": []}\n```",
			"narrative": "  The board reviewed the budget.  ",
			"brief":     "- Budget approved",
			"chat":      "The budget was approved.",
		},
	}
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	kind := "chat"
	switch {
	case strings.Contains(prompt, "single, valid JSON object"):
		kind = "extract"
	case strings.Contains(prompt, "Narrative Summary:"):
		kind = "narrative"
	case strings.Contains(prompt, "Brief Summary"):
		kind = "brief"
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	if f.err != nil {
		return "", f.err
	}
	return f.answers[kind], nil
}

func (f *fakeLLM) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

type fakeTranscriber struct {
	text     string
	err      error
	gotAudio []byte
	gotType  string
	// during runs while the job is in flight
	during func()
}

func (f *fakeTranscriber) Name() string { return "fake-stt" }

func (f *fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, mimeType string) (string, error) {
	data, _ := io.ReadAll(audio)
	f.gotAudio = data
	f.gotType = mimeType
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}
