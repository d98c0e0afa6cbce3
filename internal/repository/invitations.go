package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

var _ InvitationRepository = (*PostgresInvitationRepo)(nil)

// PostgresInvitationRepo implements InvitationRepository on pgx.
type PostgresInvitationRepo struct {
	db *pgxpool.Pool
}

func NewPostgresInvitationRepo(pool *pgxpool.Pool) *PostgresInvitationRepo {
	return &PostgresInvitationRepo{db: pool}
}

const invitationColumns = `id, project_id, invitee_user_id, status, created_at`

func (r *PostgresInvitationRepo) Create(ctx context.Context, invitation domain.Invitation) (domain.Invitation, error) {
	row := r.db.QueryRow(ctx, `
INSERT INTO invitations (id, project_id, invitee_user_id, status)
VALUES ($1, $2, $3, $4)
RETURNING `+invitationColumns,
		invitation.ID, invitation.ProjectID, invitation.InviteeUserID, invitation.Status,
	)
	created, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("create invitation: %w", err)
	}
	return created, nil
}

func (r *PostgresInvitationRepo) GetByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id)
	invitation, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Invitation{}, domain.ErrInvitationNotFound
		}
		return domain.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	return invitation, nil
}

// Accept flips the invitation to ACCEPTED and inserts the membership row as
// one transaction. The status flip is a compare-and-set on status = PENDING:
// of two concurrent accepts, exactly one commits and the other observes the
// invitation already settled.
func (r *PostgresInvitationRepo) Accept(ctx context.Context, id string, membership domain.Membership) error {
	return pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE invitations SET status = $1 WHERE id = $2 AND status = $3`,
			domain.InvitationAccepted, id, domain.InvitationPending,
		)
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInvitationSettled
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO project_members (project_id, member_id, role, invitation_id)
VALUES ($1, $2, $3, $4)`,
			membership.ProjectID, membership.MemberID, membership.Role, membership.InvitationID,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyMember
			}
			return fmt.Errorf("insert membership: %w", err)
		}
		return nil
	})
}

func (r *PostgresInvitationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (r *PostgresInvitationRepo) ListRoster(ctx context.Context, projectID int64, limit, offset int32) ([]domain.RosterEntry, int64, error) {
	rows, err := r.db.Query(ctx, `
SELECT u.id, u.name, u.email, COALESCE(u.profile_image, ''), i.status, i.id,
       (SELECT count(*) FROM tasks t WHERE t.project_id = i.project_id AND t.assigned_to = u.id)
FROM invitations i
JOIN users u ON u.id = i.invitee_user_id
WHERE i.project_id = $1
ORDER BY i.created_at DESC
LIMIT $2 OFFSET $3`,
		projectID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var entries []domain.RosterEntry
	for rows.Next() {
		var entry domain.RosterEntry
		var invitationID string
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.Email, &entry.ProfileImage, &entry.Status, &invitationID, &entry.TaskCount); err != nil {
			return nil, 0, fmt.Errorf("scan roster entry: %w", err)
		}
		entry.InvitationID = &invitationID
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate roster: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM invitations WHERE project_id = $1`, projectID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count roster: %w", err)
	}
	return entries, total, nil
}

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var invitation domain.Invitation
	if err := row.Scan(&invitation.ID, &invitation.ProjectID, &invitation.InviteeUserID, &invitation.Status, &invitation.CreatedAt); err != nil {
		return domain.Invitation{}, err
	}
	return invitation, nil
}

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
