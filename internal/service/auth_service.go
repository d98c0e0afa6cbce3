package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	pw "github.com/GeonSoon1/moonshot-myself/internal/password"
	"github.com/GeonSoon1/moonshot-myself/internal/repository"
	"github.com/GeonSoon1/moonshot-myself/internal/token"
)

// TokenPair is the result of every successful authentication path.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// FederatedResolver exchanges a provider authorization code for a resolved
// identity. Its HTTP mechanics live in internal/adapter/oauth.
type FederatedResolver interface {
	Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error)
}

// AuthService encapsulates registration, sign-in and refresh-token rotation.
type AuthService struct {
	users     repository.UserRepository
	sessions  repository.SessionRepository
	codec     *token.Codec
	federated FederatedResolver
	snowflake *snowflake.Node
	cfg       config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, codec *token.Codec, federated FederatedResolver, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		codec:     codec,
		federated: federated,
		snowflake: node,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("github.com/GeonSoon1/moonshot-myself/internal/service"),
	}
}

// RegisterInput carries the registration fields after transport-level
// validation.
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	ProfileImage string
}

// Register creates a password-credentialed user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return domain.User{}, domain.ErrValidation
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		span.RecordError(err)
		return domain.User{}, err
	}

	hash, err := pw.Hash(in.Password)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, domain.User{
		ID:           s.snowflake.Generate().Int64(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		ProfileImage: in.ProfileImage,
	})
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	s.audit("user.register", "user_id", user.ID)
	return user, nil
}

// SignIn authenticates by email and password and opens a new session. An
// unknown email and a wrong password fail identically.
func (s *AuthService) SignIn(ctx context.Context, email, secret string) (TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.SignIn")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return TokenPair{}, domain.ErrInvalidCredentials
		}
		span.RecordError(err)
		return TokenPair{}, err
	}
	if user.PasswordHash == "" {
		// Federated-only account; no password to match.
		return TokenPair{}, domain.ErrInvalidCredentials
	}

	ok, err := pw.Compare(secret, user.PasswordHash)
	if err != nil || !ok {
		return TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	s.audit("session.signin", "user_id", user.ID)
	return pair, nil
}

// GoogleLogin exchanges a provider authorization code, upserts the matching
// account and opens a session for it.
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.GoogleLogin")
	defer span.End()

	if s.federated == nil {
		return TokenPair{}, domain.ErrValidation
	}

	identity, err := s.federated.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, fmt.Errorf("%w: exchange authorization code: %v", domain.ErrUnauthenticated, err)
	}

	user, err := s.users.FindOrCreateFederated(ctx, identity, s.snowflake.Generate().Int64())
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	s.audit("session.signin.google", "user_id", user.ID)
	return pair, nil
}

// Rotate exchanges a valid, unused refresh token for a fresh pair while
// revoking the matched session. A token that matches no active session fails
// as expired: an already-rotated token can never succeed again.
func (s *AuthService) Rotate(ctx context.Context, presented string) (TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Rotate")
	defer span.End()

	userID, kind, err := s.codec.Verify(presented)
	if err != nil {
		return TokenPair{}, err
	}
	if kind != token.KindRefresh {
		return TokenPair{}, domain.ErrTokenMalformed
	}

	active, err := s.sessions.FindActive(ctx, userID, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	// Hashes are salted, so the only way to locate the matching session is a
	// scan over the user's active rows. Cost is O(active sessions for the
	// user); see scripts/schema.sql for the supporting index.
	var matched *domain.Session
	for i := range active {
		if sessionHashMatches(active[i].RefreshTokenHash, presented) {
			matched = &active[i]
			break
		}
	}
	if matched == nil {
		return TokenPair{}, domain.ErrTokenExpired
	}

	pair, next, err := s.mintSession(userID)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	if _, err := s.sessions.Rotate(ctx, matched.ID, next); err != nil {
		if !errors.Is(err, domain.ErrTokenExpired) {
			span.RecordError(err)
		}
		return TokenPair{}, err
	}

	s.audit("session.rotate", "user_id", userID, "revoked_session_id", matched.ID)
	return pair, nil
}

// openSession mints a token pair and persists the backing session row.
func (s *AuthService) openSession(ctx context.Context, userID int64) (TokenPair, error) {
	pair, session, err := s.mintSession(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.sessions.Create(ctx, session); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// mintSession builds a fresh token pair plus the unsaved session row holding
// the refresh token's one-way hash.
func (s *AuthService) mintSession(userID int64) (TokenPair, domain.Session, error) {
	access, err := s.codec.Sign(userID, token.KindAccess)
	if err != nil {
		return TokenPair{}, domain.Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.codec.Sign(userID, token.KindRefresh)
	if err != nil {
		return TokenPair{}, domain.Session{}, fmt.Errorf("sign refresh token: %w", err)
	}

	hash, err := sessionHash(refresh, s.cfg.SessionHashCost)
	if err != nil {
		return TokenPair{}, domain.Session{}, fmt.Errorf("hash refresh token: %w", err)
	}

	session := domain.Session{
		ID:               s.snowflake.Generate().Int64(),
		UserID:           userID,
		RefreshTokenHash: hash,
		ExpiresAt:        time.Now().UTC().Add(s.cfg.RefreshTokenTTL),
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, session, nil
}

// sessionHash stores a salted one-way hash of the refresh token. The token is
// digested first because bcrypt caps its input at 72 bytes, which a JWT
// exceeds. The salt is why rotation has to scan instead of looking hashes up
// directly.
func sessionHash(refresh string, cost int) (string, error) {
	sum := sha256.Sum256([]byte(refresh))
	hash, err := bcrypt.GenerateFromPassword(sum[:], cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func sessionHashMatches(stored, refresh string) bool {
	sum := sha256.Sum256([]byte(refresh))
	return bcrypt.CompareHashAndPassword([]byte(stored), sum[:]) == nil
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
