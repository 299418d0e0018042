package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/mai-recap/errors"
	"github.com/johnquangdev/mai-recap/internal/infrastructure/cache"
	"github.com/johnquangdev/mai-recap/pkg/jwt"
)

const revokedPrefix = "session:revoked:"

// Session is an issued access token
type Session struct {
	ID          uuid.UUID `json:"session_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service implements the shared-password gate and session tokens
type Service struct {
	password   string
	jwtManager *jwt.Manager
	store      cache.Store
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new auth service
func NewService(password string, jwtManager *jwt.Manager, store cache.Store, logger *zap.Logger) *Service {
	return &Service{
		password:   password,
		jwtManager: jwtManager,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Login checks the password and issues a session token
func (s *Service) Login(ctx context.Context, password string) (*Session, error) {
	if !s.passwordMatches(password) {
		if s.logger != nil {
			s.logger.Warn("🔒 Login rejected: incorrect password")
		}
		return nil, errors.ErrInvalidCredentials()
	}

	sid := uuid.New()
	token, expiresAt, err := s.jwtManager.GenerateSessionToken(sid)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}

	if s.logger != nil {
		s.logger.Info("🔓 Session started", zap.String("session_id", sid.String()))
	}
	return &Session{ID: sid, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Validate verifies a token and rejects revoked sessions
func (s *Service) Validate(ctx context.Context, token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, errors.ErrUnauthenticated()
	}

	claims, err := s.jwtManager.ValidateSessionToken(token)
	if err != nil {
		if stdErrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired()
		}
		return nil, errors.ErrInvalidToken()
	}

	if s.store != nil {
		_, revoked, err := s.store.Get(ctx, revokedPrefix+claims.SessionID.String())
		if err != nil {
			return nil, errors.ErrCacheFailed("check session", err)
		}
		if revoked {
			return nil, errors.ErrSessionRevoked()
		}
	}
	return claims, nil
}

// Logout revokes the session until its token would have expired anyway
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtManager.ValidateSessionToken(token)
	if err != nil {
		if stdErrors.Is(err, jwt.ErrTokenExpired) {
			return nil
		}
		return errors.ErrInvalidToken()
	}
	if s.store == nil {
		return nil
	}

	ttl := s.jwtManager.GetExpiry()
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.store.Set(ctx, revokedPrefix+claims.SessionID.String(), "1", ttl); err != nil {
		return errors.ErrCacheFailed("revoke session", err)
	}

	if s.logger != nil {
		s.logger.Info("🔒 Session revoked", zap.String("session_id", claims.SessionID.String()))
	}
	return nil
}

// passwordMatches compares digests so neither content nor length leaks through timing
func (s *Service) passwordMatches(candidate string) bool {
	if s.password == "" {
		return false
	}
	want := sha256.Sum256([]byte(s.password))
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}
