package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	authdto "github.com/johnquangdev/mai-recap/internal/adapter/dto/auth"
	"github.com/johnquangdev/mai-recap/internal/adapter/dto/common"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/mai-recap/internal/usecase/auth"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
)

// AuthService is the password gate used by the auth handler
type AuthService interface {
	Login(ctx context.Context, password string) (*auth.Session, error)
	Validate(ctx context.Context, token string) (*jwt.Claims, error)
	Logout(ctx context.Context, token string) error
}

// Auth handles authentication HTTP requests
type Auth struct {
	service      AuthService
	secureCookie bool
	logger       *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(service AuthService, secureCookie bool, logger *zap.Logger) *Auth {
	return &Auth{
		service:      service,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Login exchanges the shared password for a session token
// POST /v1/auth/login
func (h *Auth) Login(c echo.Context) error {
	var req authdto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	session, err := h.service.Login(c.Request().Context(), req.Password)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	setSessionCookie(c, session.AccessToken, session.ExpiresAt, h.secureCookie)

	return HandleSuccess(h.logger, c, &authdto.LoginResponse{
		SessionID:   session.ID.String(),
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(session.ExpiresAt).Seconds()),
		ExpiresAt:   session.ExpiresAt,
	})
}

// Logout revokes the current session
// POST /v1/auth/logout
func (h *Auth) Logout(c echo.Context) error {
	token := middleware.ExtractToken(c.Request())
	if token == "" {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return HandleError(h.logger, c, err)
	}

	clearSessionCookie(c)
	return HandleSuccess(h.logger, c, &common.MessageResponse{Message: "Logged out successfully"})
}

// Me describes the session behind the current token
// GET /v1/auth/me
func (h *Auth) Me(c echo.Context) error {
	claims, ok := middleware.GetSession(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	resp := &authdto.SessionResponse{SessionID: claims.SessionID.String()}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		resp.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	return HandleSuccess(h.logger, c, resp)
}
