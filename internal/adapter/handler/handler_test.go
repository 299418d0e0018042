package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/domain/entities"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/cache"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/mai-recap/internal/usecase/auth"
	"github.com/johnquangdev/mai-recap/internal/usecase/meeting"
	"github.com/johnquangdev/mai-recap/internal/usecase/minutes"
	"github.com/johnquangdev/mai-recap/internal/usecase/speaker"
	"github.com/johnquangdev/mai-recap/pkg/config"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/mai-recap/pkg/validator"
)

const testPassword = "let-me-in"

// fakeMeetingService implements the endpoints exercised here; anything else panics
type fakeMeetingService struct {
	meeting.Service

	meetings map[uuid.UUID]*entities.Meeting
	upload   meeting.AudioUpload
	body     []byte
	mapping  map[string]string
	export   *meeting.ExportResult
}

func newFakeMeetingService() *fakeMeetingService {
	return &fakeMeetingService{meetings: map[uuid.UUID]*entities.Meeting{}}
}

func (f *fakeMeetingService) CreateMeeting(_ context.Context, title string) (*entities.Meeting, error) {
	m := entities.NewMeeting(title)
	f.meetings[m.ID] = m
	return m, nil
}

func (f *fakeMeetingService) GetMeeting(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return nil, errors.ErrMeetingNotFound(id.String())
	}
	return m, nil
}

func (f *fakeMeetingService) ListMeetings(_ context.Context, limit, offset int) ([]entities.Meeting, int64, error) {
	out := make([]entities.Meeting, 0, len(f.meetings))
	for _, m := range f.meetings {
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

func (f *fakeMeetingService) UploadAudio(ctx context.Context, id uuid.UUID, upload meeting.AudioUpload) (*entities.Meeting, *entities.Job, error) {
	m, err := f.GetMeeting(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, _ := io.ReadAll(upload.Reader)
	f.upload, f.body = upload, data
	return m, entities.NewTranscriptionJob(id, "audio/"+id.String()+"/1.mp3"), nil
}

func (f *fakeMeetingService) RenameSpeakers(_ context.Context, _ uuid.UUID, mapping map[string]string) (*speaker.RenameResult, error) {
	f.mapping = mapping
	return &speaker.RenameResult{Text: "Dr. Smith: hi", Replacements: 1, PerLabel: map[string]int{"Speaker 1": 1}}, nil
}

func (f *fakeMeetingService) Export(ctx context.Context, id uuid.UUID, kind, format string) (*meeting.ExportResult, error) {
	if _, err := f.GetMeeting(ctx, id); err != nil {
		return nil, err
	}
	return f.export, nil
}

type testServer struct {
	e        *echo.Echo
	meetings *fakeMeetingService
	store    *cache.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	authSvc := auth.NewService(testPassword, jwt.NewManager("test-secret", time.Hour), store, nil)
	meetings := newFakeMeetingService()
	clock := func() time.Time { return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) }

	e := echo.New()
	e.Validator = pkgvalidator.New()

	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, RouterDeps{
		Auth:     NewAuth(authSvc, false, nil),
		Meetings: NewMeeting(meetings, 1<<20, nil),
		Tools: NewTools(
			minutes.NewRenderer(minutes.BuiltinDefaults(), minutes.WithClock(clock)),
			speaker.New(),
			nil,
			nil,
		),
		Sessions: authSvc,
		Checks: map[string]HealthCheck{
			"cache": func(context.Context) error { return nil },
		},
	}).Setup(e)

	return &testServer{e: e, meetings: meetings, store: store}
}

type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return s.do(t, method, path, token, r, echo.MIMEApplicationJSON)
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/v1/auth/login", "", `{"password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeData(t, rec, &resp)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, v))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	t.Run("wrong password", func(t *testing.T) {
		rec := s.doJSON(t, http.MethodPost, "/v1/auth/login", "", `{"password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, int(errors.ErrorCode_AUTH_INVALID_CREDENTIALS), decode(t, rec).Code)
	})

	t.Run("missing password", func(t *testing.T) {
		rec := s.doJSON(t, http.MethodPost, "/v1/auth/login", "", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, int(errors.ErrorCode_INVALID_ARGUMENT), env.Code)
		assert.Equal(t, "is required", env.Details["password"])
	})

	t.Run("sets cookie", func(t *testing.T) {
		rec := s.doJSON(t, http.MethodPost, "/v1/auth/login", "", `{"password":"`+testPassword+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == middleware.AccessTokenCookie {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		// the cookie alone authenticates
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.AddCookie(cookie)
		me := httptest.NewRecorder()
		s.e.ServeHTTP(me, req)
		assert.Equal(t, http.StatusOK, me.Code)
	})
}

func TestRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/meetings", "/v1/auth/me"} {
		rec := s.doJSON(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, int(errors.ErrorCode_UNAUTHENTICATED), decode(t, rec).Code)
	}

	rec := s.doJSON(t, http.MethodGet, "/v1/meetings", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AUTH_INVALID_TOKEN), decode(t, rec).Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.doJSON(t, http.MethodGet, "/v1/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/v1/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.doJSON(t, http.MethodGet, "/v1/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AUTH_SESSION_REVOKED), decode(t, rec).Code)
}

func TestMeetingCRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.doJSON(t, http.MethodPost, "/v1/meetings", token, `{"title":"Budget Review"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Status   string   `json:"status"`
		Speakers []string `json:"speakers"`
	}
	decodeData(t, rec, &created)
	assert.Equal(t, "Budget Review", created.Title)
	assert.Equal(t, "created", created.Status)
	assert.NotNil(t, created.Speakers)

	rec = s.doJSON(t, http.MethodGet, "/v1/meetings/"+created.ID, token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.doJSON(t, http.MethodGet, "/v1/meetings?limit=5", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items      []map[string]interface{} `json:"items"`
		Pagination struct {
			Limit      int   `json:"limit"`
			TotalItems int64 `json:"total_items"`
		} `json:"pagination"`
	}
	decodeData(t, rec, &list)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Pagination.Limit)
	assert.Equal(t, int64(1), list.Pagination.TotalItems)

	rec = s.doJSON(t, http.MethodGet, "/v1/meetings?limit=500", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMeeting_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	rec := s.doJSON(t, http.MethodGet, "/v1/meetings/not-a-uuid", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodGet, "/v1/meetings/"+uuid.NewString(), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_MEETING_NOT_FOUND), decode(t, rec).Code)
}

func TestUploadAudio(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	m, _ := s.meetings.CreateMeeting(context.Background(), "x")
	path := "/v1/meetings/" + m.ID.String() + "/audio"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "standup.mp3")
	require.NoError(t, err)
	_, _ = part.Write([]byte("ID3-audio-bytes"))
	require.NoError(t, w.Close())

	rec := s.do(t, http.MethodPost, path, token, &buf, w.FormDataContentType())
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, "standup.mp3", s.meetings.upload.Filename)
	assert.Equal(t, int64(15), s.meetings.upload.Size)
	assert.Equal(t, "ID3-audio-bytes", string(s.meetings.body))

	var resp struct {
		Job struct {
			Status string `json:"status"`
		} `json:"job"`
	}
	decodeData(t, rec, &resp)
	assert.Equal(t, "pending", resp.Job.Status)

	// no file field
	var empty bytes.Buffer
	w = multipart.NewWriter(&empty)
	require.NoError(t, w.WriteField("title", "x"))
	require.NoError(t, w.Close())
	rec = s.do(t, http.MethodPost, path, token, &empty, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int(errors.ErrorCode_AUDIO_INVALID), decode(t, rec).Code)
}

func TestRenameSpeakers(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	path := "/v1/meetings/" + uuid.NewString() + "/speakers/rename"

	rec := s.doJSON(t, http.MethodPost, path, token, `{"mapping":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Details, "mapping")

	rec = s.doJSON(t, http.MethodPost, path, token, `{"mapping":{"Speaker 1":"Dr. Smith"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]string{"Speaker 1": "Dr. Smith"}, s.meetings.mapping)

	var resp struct {
		Replacements int    `json:"replacements"`
		Message      string `json:"message"`
	}
	decodeData(t, rec, &resp)
	assert.Equal(t, 1, resp.Replacements)
	assert.Equal(t, "Updated 1 reference", resp.Message)
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)
	m, _ := s.meetings.CreateMeeting(context.Background(), "x")
	s.meetings.export = &meeting.ExportResult{
		Filename:    "Budget_Review_minutes.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("PK-doc"),
		URL:         "https://files.test/exports/x.docx",
	}

	rec := s.doJSON(t, http.MethodGet, "/v1/meetings/"+m.ID.String()+"/export?kind=minutes&format=docx", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK-doc", rec.Body.String())
	assert.Equal(t, `attachment; filename="Budget_Review_minutes.docx"`, rec.Header().Get(echo.HeaderContentDisposition))
	assert.Equal(t, "https://files.test/exports/x.docx", rec.Header().Get("X-Export-URL"))
}

func TestTools(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	record := `{"meetingTitle": "Budget Review", "attendees": ["A. Murphy"], "majorProjects": []}`

	rec := s.doJSON(t, http.MethodPost, "/v1/minutes/render", token, record)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rendered struct {
		Minutes string `json:"minutes"`
	}
	decodeData(t, rec, &rendered)
	assert.Contains(t, rendered.Minutes, "Meeting Title: Budget Review\n")
	assert.Contains(t, rendered.Minutes, "• A. Murphy\n")

	rec = s.doJSON(t, http.MethodPost, "/v1/minutes/render?format=docx", token, record)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = s.doJSON(t, http.MethodPost, "/v1/minutes/render?format=pdf", token, record)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doJSON(t, http.MethodPost, "/v1/speakers/detect", token,
		`{"transcript":"Speaker 2: hi\n**Dr. Smith**: hello\nSpeaker 2: again"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var detected struct {
		Speakers []string `json:"speakers"`
	}
	decodeData(t, rec, &detected)
	assert.Equal(t, []string{"Dr. Smith", "Speaker 2"}, detected.Speakers)

	rec = s.doJSON(t, http.MethodPost, "/v1/speakers/rename", token,
		`{"transcript":"Speaker 1: hi\nSpeaker 2: yo","mapping":{"Speaker 1":"Ann"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var renamed struct {
		Transcript   string `json:"transcript"`
		Replacements int    `json:"replacements"`
	}
	decodeData(t, rec, &renamed)
	assert.Equal(t, "Ann: hi\nSpeaker 2: yo", renamed.Transcript)
	assert.Equal(t, 1, renamed.Replacements)
}

func TestTools_RenderRejectsOversizedRecord(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	// a valid record padded past the limit must not be truncated and rendered
	padding := strings.Repeat(" ", maxRecordBytes)
	rec := s.doJSON(t, http.MethodPost, "/v1/minutes/render", token, `{"meetingTitle": "Budget Review"}`+padding)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, int(errors.ErrorCode_INVALID_PAYLOAD), body.Code)
	assert.Contains(t, body.Details["body"], "at most")

	// exactly at the limit still renders
	record := `{"meetingTitle": "Budget Review"}`
	rec = s.doJSON(t, http.MethodPost, "/v1/minutes/render", token, record+strings.Repeat(" ", maxRecordBytes-len(record)))
	require.Equal(t, http.StatusOK, rec.Code)
	var rendered struct {
		Minutes string `json:"minutes"`
	}
	decodeData(t, rec, &rendered)
	assert.Contains(t, rendered.Minutes, "Meeting Title: Budget Review\n")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.doJSON(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status       string            `json:"status"`
		Environment  string            `json:"environment"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Environment)
	assert.Equal(t, "ok", body.Dependencies["cache"])
}
