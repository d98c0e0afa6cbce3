package domain

import "time"

// Membership roles.
const (
	RoleOwner  = "OWNER"
	RoleMember = "MEMBER"
)

// Invitation statuses. PENDING may move to ACCEPTED or CANCELLED; both of
// those are terminal.
const (
	InvitationPending   = "PENDING"
	InvitationAccepted  = "ACCEPTED"
	InvitationCancelled = "CANCELLED"
)

// Project is the authorization anchor for membership operations. Exactly one
// owner; the owner's OWNER membership row is created with the project.
type Project struct {
	ID          int64
	OwnerID     int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links a user to a project with a role. Unique per
// (ProjectID, MemberID).
type Membership struct {
	ProjectID    int64
	MemberID     int64
	Role         string
	InvitationID *string // set when the membership came from an accepted invitation
	CreatedAt    time.Time
}

// Invitation is an offer for a user to join a project. Its id is an opaque
// random string: it doubles as the capability presented on accept, so it must
// not be guessable.
type Invitation struct {
	ID            string
	ProjectID     int64
	InviteeUserID int64
	Status        string
	CreatedAt     time.Time
}

// RosterEntry is one line of a project's member listing: the invited user,
// the invitation state, and how many tasks in the project are assigned to
// them. The project owner is represented with a nil InvitationID.
type RosterEntry struct {
	UserID       int64
	Name         string
	Email        string
	ProfileImage string
	Status       string
	InvitationID *string
	TaskCount    int64
}

// Task and SubTask carry only what permission resolution needs: the
// containment chain sub-task -> task -> project.
type Task struct {
	ID        int64
	ProjectID int64
}

type SubTask struct {
	ID     int64
	TaskID int64
}
