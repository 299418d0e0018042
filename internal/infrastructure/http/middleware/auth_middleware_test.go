package middleware

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
)

type stubValidator struct {
	token  string
	claims *jwt.Claims
	err    error
}

func (s stubValidator) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, errors.ErrInvalidToken()
	}
	return s.claims, nil
}

func serve(t *testing.T, v SessionValidator, req *http.Request) (*httptest.ResponseRecorder, *jwt.Claims) {
	t.Helper()
	e := echo.New()
	var seen *jwt.Claims
	h := EchoAuth(v)(func(c echo.Context) error {
		seen, _ = GetSession(c)
		return c.NoContent(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec, seen
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestEchoAuth(t *testing.T) {
	claims := &jwt.Claims{SessionID: uuid.New()}
	v := stubValidator{token: "good", claims: claims}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec, seen := serve(t, v, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, claims, seen)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
		rec, seen := serve(t, v, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, claims, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		rec, seen := serve(t, v, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, int(errors.ErrorCode_UNAUTHENTICATED), errorCode(t, rec))
		assert.Nil(t, seen)
	})

	t.Run("rejected token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec, _ := serve(t, v, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, int(errors.ErrorCode_AUTH_INVALID_TOKEN), errorCode(t, rec))
	})

	t.Run("plain error becomes invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec, _ := serve(t, stubValidator{err: stdErrors.New("boom")}, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, int(errors.ErrorCode_AUTH_INVALID_TOKEN), errorCode(t, rec))
	})
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie"})
	assert.Equal(t, "abc", ExtractToken(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic xyz")
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie"})
	assert.Equal(t, "cookie", ExtractToken(req))

	assert.Empty(t, ExtractToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}
