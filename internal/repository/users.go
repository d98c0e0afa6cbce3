package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

var _ UserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo implements UserRepository on pgx.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const userColumns = `id, email, password_hash, name, profile_image, created_at, updated_at`

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO users (id, email, password_hash, name, profile_image)
VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''))
RETURNING `+userColumns,
		user.ID, user.Email, user.PasswordHash, user.Name, user.ProfileImage,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *PostgresUserRepo) FindOrCreateFederated(ctx context.Context, identity domain.FederatedIdentity, newID int64) (domain.User, error) {
	user, err := r.GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	created, err := r.Create(ctx, domain.User{
		ID:           newID,
		Email:        identity.Email,
		Name:         identity.Name,
		ProfileImage: identity.ProfileImage,
	})
	if err == nil {
		return created, nil
	}
	// A concurrent first login with the same email can win the insert.
	if errors.Is(err, domain.ErrEmailTaken) {
		return r.GetByEmail(ctx, identity.Email)
	}
	return domain.User{}, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user         domain.User
		passwordHash *string
		profileImage *string
	)
	if err := row.Scan(&user.ID, &user.Email, &passwordHash, &user.Name, &profileImage, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if profileImage != nil {
		user.ProfileImage = *profileImage
	}
	return user, nil
}
