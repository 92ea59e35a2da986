package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// SessionService issues JWT pairs on top of Authenticate and tracks the
// current session id per user in Redis. With a nil Redis client tokens are
// still issued but no session is recorded or checked.
type SessionService struct {
	Graph  *Service
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	TTL    time.Duration
}

func NewSessionService(graph *Service, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *SessionService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	ttl := jwt.RefreshTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{Graph: graph, JWT: jwt, Redis: rdb, Logger: logger, TTL: ttl}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *SessionService) issue(username, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(username, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(username, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Login authenticates and starts a new session, replacing any previous one.
func (s *SessionService) Login(ctx context.Context, username, password string) (*entity.User, TokenPair, error) {
	u, err := s.Graph.Authenticate(ctx, username, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	sid := uuid.NewString()
	pair, err := s.issue(u.Username, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("username", u.Username).Error("generate tokens failed")
		return nil, TokenPair{}, err
	}

	if err := s.storeSession(ctx, u.Username, map[string]any{
		"username":   u.Username,
		"name":       u.Name,
		"sid":        sid,
		"created_at": nowRFC3339(),
	}); err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the session id and both tokens. The refresh token must
// belong to the user's current session.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", domain.ErrInvalidCredentials
	}
	if _, err := s.Graph.FindByUsername(ctx, claims.Username); err != nil {
		return TokenPair{}, "", domain.ErrInvalidCredentials
	}
	if !s.SessionActive(ctx, claims.Username, claims.SessionID) {
		return TokenPair{}, "", domain.ErrInvalidCredentials
	}

	sid := uuid.NewString()
	pair, err := s.issue(claims.Username, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if err := s.storeSession(ctx, claims.Username, map[string]any{"sid": sid, "updated_at": nowRFC3339()}); err != nil {
		return TokenPair{}, "", err
	}
	return pair, claims.Username, nil
}

// storeSession writes fields to the user's session hash and renews its TTL.
// Tokens are only handed out once this succeeds, since Auth rejects tokens
// whose session is missing.
func (s *SessionService) storeSession(ctx context.Context, username string, fields map[string]any) error {
	if s.Redis == nil {
		return nil
	}
	key := helpers.SessionKey(username)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.WithError(err).WithField("key", key).Error("redis session write failed")
		return fmt.Errorf("session write: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// SessionActive reports whether sid is the user's current session. Always
// true without Redis.
func (s *SessionService) SessionActive(ctx context.Context, username, sid string) bool {
	if s.Redis == nil {
		return true
	}
	data, err := s.Redis.HGetAll(ctx, helpers.SessionKey(username)).Result()
	return err == nil && len(data) > 0 && data["sid"] == sid
}

// Logout ends the user's session.
func (s *SessionService) Logout(ctx context.Context, username string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(username)).Err(); err != nil {
		s.Logger.WithError(err).WithField("username", username).Warn("redis session delete failed")
	}
}
