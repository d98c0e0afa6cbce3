package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

var _ SessionRepository = (*PostgresSessionRepo)(nil)

// PostgresSessionRepo implements SessionRepository on pgx.
type PostgresSessionRepo struct {
	db *pgxpool.Pool
}

func NewPostgresSessionRepo(pool *pgxpool.Pool) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: pool}
}

const sessionColumns = `id, user_id, refresh_token_hash, expires_at, revoked_at, created_at`

func (r *PostgresSessionRepo) Create(ctx context.Context, session domain.Session) (domain.Session, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING `+sessionColumns,
		session.ID, session.UserID, session.RefreshTokenHash, session.ExpiresAt,
	)
	created, err := scanSession(row)
	if err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return created, nil
}

func (r *PostgresSessionRepo) FindActive(ctx context.Context, userID int64, now time.Time) ([]domain.Session, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+sessionColumns+`
FROM sessions
WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
ORDER BY created_at DESC`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("find active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *PostgresSessionRepo) Revoke(ctx context.Context, sessionID int64) error {
	_, err := r.db.Exec(ctx, `
UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Rotate performs the revoke+create pair transactionally. The revocation is a
// compare-and-set on revoked_at IS NULL: of two concurrent presentations of
// the same refresh token, exactly one sees the row still active.
func (r *PostgresSessionRepo) Rotate(ctx context.Context, revokeID int64, next domain.Session) (domain.Session, error) {
	var created domain.Session
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`,
			revokeID,
		)
		if err != nil {
			return fmt.Errorf("revoke matched session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTokenExpired
		}

		row := tx.QueryRow(ctx, `
INSERT INTO sessions (id, user_id, refresh_token_hash, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING `+sessionColumns,
			next.ID, next.UserID, next.RefreshTokenHash, next.ExpiresAt,
		)
		created, err = scanSession(row)
		if err != nil {
			return fmt.Errorf("create replacement session: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return created, nil
}

func scanSession(row rowScanner) (domain.Session, error) {
	var session domain.Session
	if err := row.Scan(&session.ID, &session.UserID, &session.RefreshTokenHash, &session.ExpiresAt, &session.RevokedAt, &session.CreatedAt); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
