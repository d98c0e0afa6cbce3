package repository

import (
	"context"
	"time"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

// UserRepository exposes persistence for user accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, userID int64) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// FindOrCreateFederated resolves the account for a federated identity,
	// creating it with the supplied id when the email is unknown.
	FindOrCreateFederated(ctx context.Context, identity domain.FederatedIdentity, newID int64) (domain.User, error)
}

// SessionRepository owns Session rows.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) (domain.Session, error)
	// FindActive returns the user's sessions with revocation unset and
	// expiry in the future.
	FindActive(ctx context.Context, userID int64, now time.Time) ([]domain.Session, error)
	// Revoke marks one session revoked. Revoking an already-revoked session
	// is a no-op.
	Revoke(ctx context.Context, sessionID int64) error
	// Rotate revokes the matched session and persists its replacement in one
	// transaction. When another caller already revoked the session the
	// compare-and-set loses and domain.ErrTokenExpired is returned.
	Rotate(ctx context.Context, revokeID int64, next domain.Session) (domain.Session, error)
}

// ProjectRepository owns Project rows plus the task containment chain needed
// for permission resolution.
type ProjectRepository interface {
	// Create persists the project and its implicit OWNER membership row
	// together.
	Create(ctx context.Context, project domain.Project) (domain.Project, error)
	GetByID(ctx context.Context, projectID int64) (domain.Project, error)
	GetTask(ctx context.Context, taskID int64) (domain.Task, error)
	GetSubTask(ctx context.Context, subTaskID int64) (domain.SubTask, error)
}

// MembershipRepository owns Membership rows.
type MembershipRepository interface {
	Get(ctx context.Context, projectID, memberID int64) (domain.Membership, bool, error)
	// Delete removes the row if present; deleting an absent membership is a
	// no-op.
	Delete(ctx context.Context, projectID, memberID int64) error
	// AssignedTaskCount counts the project's tasks assigned to the member.
	AssignedTaskCount(ctx context.Context, projectID, memberID int64) (int64, error)
}

// InvitationRepository owns Invitation rows.
type InvitationRepository interface {
	Create(ctx context.Context, invitation domain.Invitation) (domain.Invitation, error)
	GetByID(ctx context.Context, id string) (domain.Invitation, error)
	// Accept flips the invitation PENDING -> ACCEPTED and inserts the
	// membership row; both writes commit together or not at all. A
	// non-PENDING invitation loses the compare-and-set and returns
	// domain.ErrInvitationSettled.
	Accept(ctx context.Context, id string, membership domain.Membership) error
	// Delete removes the invitation unconditionally, whatever its status.
	Delete(ctx context.Context, id string) error
	// ListRoster returns the project's invitation roster with invitee
	// profiles and assigned-task counts, newest first.
	ListRoster(ctx context.Context, projectID int64, limit, offset int32) ([]domain.RosterEntry, int64, error)
}

// OAuthStateStore holds the short-lived state/nonce pairs minted for the
// federated login browser round-trip.
type OAuthStateStore interface {
	SaveState(ctx context.Context, state, nonce string, ttl time.Duration) error
	// ConsumeState returns the nonce stored under state and deletes it, so a
	// state value can be redeemed at most once. Unknown states return
	// ("", nil).
	ConsumeState(ctx context.Context, state string) (string, error)
}
