package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obichijioke/eventapp/internal/domain"
)

// AuthRepository stores users and their login sessions.
type AuthRepository struct {
	db
}

func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db{pool: pool}}
}

const userColumns = `id, email, name, password_hash, is_admin, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

func (r *AuthRepository) CreateUser(ctx context.Context, user domain.User) error {
	const stmt = `
INSERT INTO users (id, email, name, password_hash, is_admin, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, user.ID, user.Email, user.Name, user.PasswordHash, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *AuthRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *AuthRepository) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *AuthRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	tag, err := r.exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, userID, isAdmin)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AuthRepository) CreateSession(ctx context.Context, s domain.Session) error {
	const stmt = `
INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at, last_seen_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, s.ID, s.UserID, s.TokenHash, s.ExpiresAt, s.CreatedAt, s.LastSeenAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSessionByTokenHash returns the session and the admin flag of its user.
func (r *AuthRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, bool, error) {
	const query = `
SELECT s.id, s.user_id, s.token_hash, s.expires_at, s.revoked_at, s.created_at, s.last_seen_at, u.is_admin
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token_hash = $1`

	var s domain.Session
	var isAdmin bool
	err := r.queryRow(ctx, query, tokenHash).
		Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt, &s.LastSeenAt, &isAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, false, domain.ErrUnauthenticated
		}
		return domain.Session{}, false, fmt.Errorf("get session: %w", err)
	}
	return s, isAdmin, nil
}

func (r *AuthRepository) TouchSession(ctx context.Context, sessionID string, at time.Time) error {
	if _, err := r.exec(ctx, `UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, sessionID, at); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r *AuthRepository) RevokeSession(ctx context.Context, tokenHash string, at time.Time) error {
	const stmt = `UPDATE sessions SET revoked_at = $2 WHERE token_hash = $1 AND revoked_at IS NULL`
	if _, err := r.exec(ctx, stmt, tokenHash, at); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeUserSessions revokes every live session of the user and returns
// their token hashes so caches can be purged.
func (r *AuthRepository) RevokeUserSessions(ctx context.Context, userID string, at time.Time) ([]string, error) {
	const stmt = `
UPDATE sessions SET revoked_at = $2
WHERE user_id = $1 AND revoked_at IS NULL
RETURNING token_hash`

	rows, err := r.query(ctx, stmt, userID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("revoke user sessions: %w", err)
	}
	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("revoke user sessions: %w", err)
	}
	return hashes, nil
}
