package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/obichijioke/eventapp/internal/clock"
	"github.com/obichijioke/eventapp/internal/domain"
)

type AuthRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, userID string) (domain.User, error)
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
	CreateSession(ctx context.Context, s domain.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, bool, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time) error
	RevokeSession(ctx context.Context, tokenHash string, at time.Time) error
	RevokeUserSessions(ctx context.Context, userID string, at time.Time) ([]string, error)
}

// SessionCache fronts session lookups. Implementations must treat a miss as
// (false, nil).
type SessionCache interface {
	Get(ctx context.Context, tokenHash string) (domain.Session, domain.Actor, bool, error)
	Set(ctx context.Context, tokenHash string, s domain.Session, actor domain.Actor, ttl time.Duration) error
	Delete(ctx context.Context, tokenHashes ...string) error
}

type nopSessionCache struct{}

func (nopSessionCache) Get(context.Context, string) (domain.Session, domain.Actor, bool, error) {
	return domain.Session{}, domain.Actor{}, false, nil
}
func (nopSessionCache) Set(context.Context, string, domain.Session, domain.Actor, time.Duration) error {
	return nil
}
func (nopSessionCache) Delete(context.Context, ...string) error { return nil }

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	minPasswordLength = 8
	touchInterval     = time.Minute
)

type AuthService struct {
	repo       AuthRepository
	cache      SessionCache
	clock      clock.Clock
	sessionTTL time.Duration
	bcryptCost int
	// dummyHash is compared against when the email is unknown so that both
	// login failures cost one bcrypt comparison.
	dummyHash []byte
}

type AuthServiceOption func(*AuthService)

func WithSessionTTL(d time.Duration) AuthServiceOption {
	return func(s *AuthService) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

func WithBcryptCost(cost int) AuthServiceOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// WithSessionCache puts a cache in front of session lookups.
func WithSessionCache(c SessionCache) AuthServiceOption {
	return func(s *AuthService) {
		if c != nil {
			s.cache = c
		}
	}
}

func NewAuthService(repo AuthRepository, clk clock.Clock, opts ...AuthServiceOption) *AuthService {
	svc := &AuthService{
		repo:       repo,
		cache:      nopSessionCache{},
		clock:      clk,
		sessionTTL: defaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), svc.bcryptCost)
	return svc
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthResult carries the raw session token. Only its hash is persisted.
type AuthResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if len(in.Password) < minPasswordLength {
		return AuthResult{}, domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}

	user := domain.User{
		ID:           newUUID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return AuthResult{}, err
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *AuthService) startSession(ctx context.Context, user domain.User) (AuthResult, error) {
	token, err := newSessionToken()
	if err != nil {
		return AuthResult{}, err
	}
	now := s.clock.Now()
	session := domain.Session{
		ID:         newUUID(),
		UserID:     user.ID,
		TokenHash:  hashToken(token),
		ExpiresAt:  now.Add(s.sessionTTL),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return AuthResult{}, err
	}
	user.PasswordHash = ""
	return AuthResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticate resolves a bearer token to the acting user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	if token == "" {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	hash := hashToken(token)
	now := s.clock.Now()

	session, actor, ok, err := s.cache.Get(ctx, hash)
	if err != nil {
		slog.WarnContext(ctx, "session cache read failed", "error", err)
		ok = false
	}
	if !ok {
		var isAdmin bool
		session, isAdmin, err = s.repo.GetSessionByTokenHash(ctx, hash)
		if err != nil {
			return domain.Actor{}, err
		}
		actor = domain.Actor{UserID: session.UserID, IsAdmin: isAdmin}
	}
	if !session.ValidAt(now) {
		if ok {
			_ = s.cache.Delete(ctx, hash)
		}
		return domain.Actor{}, domain.ErrUnauthenticated
	}

	stale := now.Sub(session.LastSeenAt) >= touchInterval
	if stale {
		if err := s.repo.TouchSession(ctx, session.ID, now); err != nil {
			slog.WarnContext(ctx, "touch session failed", "error", err)
		}
		session.LastSeenAt = now
	}
	if !ok || stale {
		if err := s.cache.Set(ctx, hash, session, actor, session.ExpiresAt.Sub(now)); err != nil {
			slog.WarnContext(ctx, "session cache write failed", "error", err)
		}
	}
	return actor, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	hash := hashToken(token)
	if err := s.repo.RevokeSession(ctx, hash, s.clock.Now()); err != nil {
		return err
	}
	return s.cache.Delete(ctx, hash)
}

// RevokeAll ends every session of the user and returns how many were live.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) (int, error) {
	hashes, err := s.repo.RevokeUserSessions(ctx, userID, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if err := s.cache.Delete(ctx, hashes...); err != nil {
		return len(hashes), err
	}
	return len(hashes), nil
}

// RevokeAllByEmail is RevokeAll for operators who know the user by email.
func (s *AuthService) RevokeAllByEmail(ctx context.Context, email string) (int, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, err
	}
	return s.RevokeAll(ctx, user.ID)
}

func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (domain.User, error) {
	if actor.UserID == "" {
		return domain.User{}, domain.ErrUnauthenticated
	}
	user, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// SetAdmin grants or removes platform administration. Live sessions are
// revoked so cached actors cannot keep stale rights.
func (s *AuthService) SetAdmin(ctx context.Context, email string, isAdmin bool) (domain.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, err
	}
	if err := s.repo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return domain.User{}, err
	}
	if _, err := s.RevokeAll(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	user.IsAdmin = isAdmin
	user.PasswordHash = ""
	return user, nil
}

// ActorByEmail resolves an operator acting from the command line. It does not
// create a session.
func (s *AuthService) ActorByEmail(ctx context.Context, email string) (domain.Actor, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
