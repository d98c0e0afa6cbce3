package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/service"
)

type memberFixture struct {
	users       *memUserRepo
	projects    *memProjectRepo
	memberships *memMembershipRepo
	invitations *memInvitationRepo
	svc         *service.MemberService
}

// newMemberFixture seeds one project (id 1) owned by user 1 with a second
// registered user (id 2) who is not yet a member.
func newMemberFixture(t *testing.T) *memberFixture {
	t.Helper()

	users := newMemUserRepo()
	users.add(domain.User{ID: 1, Email: "owner@b.c", Name: "Owner"})
	users.add(domain.User{ID: 2, Email: "invitee@b.c", Name: "Invitee"})

	memberships := newMemMembershipRepo()
	projects := newMemProjectRepo(memberships)
	_, err := projects.Create(context.Background(), domain.Project{ID: 1, OwnerID: 1, Name: "Moon"})
	require.NoError(t, err)

	invitations := newMemInvitationRepo(users, memberships)
	resolver := service.NewPermissionResolver(projects, memberships)
	svc := service.NewMemberService(users, invitations, memberships, resolver, zap.NewNop())

	return &memberFixture{
		users:       users,
		projects:    projects,
		memberships: memberships,
		invitations: invitations,
		svc:         svc,
	}
}

func TestInviteCreatesPendingInvitation(t *testing.T) {
	f := newMemberFixture(t)

	invitation, err := f.svc.Invite(context.Background(), 1, "Invitee@B.C", 1)
	require.NoError(t, err)
	require.NotEmpty(t, invitation.ID)
	require.Equal(t, domain.InvitationPending, invitation.Status)
	require.Equal(t, int64(2), invitation.InviteeUserID)
}

func TestInviteRequiresOwner(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 2)
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.Empty(t, f.invitations.rows)
}

func TestInviteUnknownEmail(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.Invite(context.Background(), 1, "nobody@b.c", 1)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.Empty(t, f.invitations.rows)
}

func TestInviteExistingMemberConflict(t *testing.T) {
	f := newMemberFixture(t)
	f.memberships.put(domain.Membership{ProjectID: 1, MemberID: 2, Role: domain.RoleMember})

	_, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.ErrorIs(t, err, domain.ErrAlreadyMember)
	// Failed invites leave no row behind.
	require.Empty(t, f.invitations.rows)
}

func TestAcceptCreatesMembershipOnce(t *testing.T) {
	f := newMemberFixture(t)

	invitation, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Accept(context.Background(), invitation.ID, 2))

	membership, ok, err := f.memberships.Get(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.RoleMember, membership.Role)
	require.NotNil(t, membership.InvitationID)
	require.Equal(t, invitation.ID, *membership.InvitationID)

	// A second accept loses the compare-and-set.
	err = f.svc.Accept(context.Background(), invitation.ID, 2)
	require.ErrorIs(t, err, domain.ErrInvitationSettled)
}

func TestAcceptByStrangerLooksAbsent(t *testing.T) {
	f := newMemberFixture(t)
	f.users.add(domain.User{ID: 3, Email: "third@b.c", Name: "Third"})

	invitation, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.NoError(t, err)

	strangerErr := f.svc.Accept(context.Background(), invitation.ID, 3)
	missingErr := f.svc.Accept(context.Background(), "no-such-invitation", 2)

	require.ErrorIs(t, strangerErr, domain.ErrInvitationNotFound)
	require.ErrorIs(t, missingErr, domain.ErrInvitationNotFound)

	// Untouched by the stranger's attempt.
	_, ok, err := f.memberships.Get(context.Background(), 1, 3)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCancelDeletesWhateverTheStatus(t *testing.T) {
	f := newMemberFixture(t)

	invitation, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.Accept(context.Background(), invitation.ID, 2))

	require.NoError(t, f.svc.Cancel(context.Background(), invitation.ID, 1))
	require.Empty(t, f.invitations.rows)

	// The membership produced by the earlier accept survives cancellation.
	_, ok, err := f.memberships.Get(context.Background(), 1, 2)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCancelRequiresOwner(t *testing.T) {
	f := newMemberFixture(t)

	invitation, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), invitation.ID, 2)
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.Len(t, f.invitations.rows, 1)
}

func TestRemoveMember(t *testing.T) {
	f := newMemberFixture(t)
	f.memberships.put(domain.Membership{ProjectID: 1, MemberID: 2, Role: domain.RoleMember})

	require.NoError(t, f.svc.RemoveMember(context.Background(), 1, 2, 1))

	_, ok, err := f.memberships.Get(context.Background(), 1, 2)
	require.NoError(t, err)
	require.False(t, ok)

	// Removing an absent member is a no-op, not an error.
	require.NoError(t, f.svc.RemoveMember(context.Background(), 1, 2, 1))
}

func TestRemoveMemberGuards(t *testing.T) {
	f := newMemberFixture(t)
	f.memberships.put(domain.Membership{ProjectID: 1, MemberID: 2, Role: domain.RoleMember})

	// Non-owner cannot remove.
	require.ErrorIs(t, f.svc.RemoveMember(context.Background(), 1, 2, 2), domain.ErrForbidden)
	// The owner cannot remove itself.
	require.ErrorIs(t, f.svc.RemoveMember(context.Background(), 1, 1, 1), domain.ErrValidation)
}

func TestListPrependsOwnerOnFirstPage(t *testing.T) {
	f := newMemberFixture(t)

	invitation, err := f.svc.Invite(context.Background(), 1, "invitee@b.c", 1)
	require.NoError(t, err)

	roster, err := f.svc.List(context.Background(), 1, 1, 10, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), roster.Total)
	require.Len(t, roster.Data, 2)

	require.Equal(t, int64(1), roster.Data[0].UserID)
	require.Equal(t, "accepted", roster.Data[0].Status)
	require.Nil(t, roster.Data[0].InvitationID)

	require.Equal(t, int64(2), roster.Data[1].UserID)
	require.Equal(t, "pending", roster.Data[1].Status)
	require.NotNil(t, roster.Data[1].InvitationID)
	require.Equal(t, invitation.ID, *roster.Data[1].InvitationID)
}

func TestListRequiresMembership(t *testing.T) {
	f := newMemberFixture(t)

	_, err := f.svc.List(context.Background(), 1, 1, 10, 2)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

type membershipKey struct {
	projectID int64
	memberID  int64
}

type memMembershipRepo struct {
	mu         sync.Mutex
	rows       map[membershipKey]domain.Membership
	taskCounts map[membershipKey]int64
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{
		rows:       make(map[membershipKey]domain.Membership),
		taskCounts: make(map[membershipKey]int64),
	}
}

func (m *memMembershipRepo) put(membership domain.Membership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[membershipKey{membership.ProjectID, membership.MemberID}] = membership
}

func (m *memMembershipRepo) Get(ctx context.Context, projectID, memberID int64) (domain.Membership, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	membership, ok := m.rows[membershipKey{projectID, memberID}]
	return membership, ok, nil
}

func (m *memMembershipRepo) Delete(ctx context.Context, projectID, memberID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, membershipKey{projectID, memberID})
	return nil
}

func (m *memMembershipRepo) AssignedTaskCount(ctx context.Context, projectID, memberID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taskCounts[membershipKey{projectID, memberID}], nil
}

type memProjectRepo struct {
	mu          sync.Mutex
	projects    map[int64]domain.Project
	tasks       map[int64]domain.Task
	subTasks    map[int64]domain.SubTask
	memberships *memMembershipRepo
}

func newMemProjectRepo(memberships *memMembershipRepo) *memProjectRepo {
	return &memProjectRepo{
		projects:    make(map[int64]domain.Project),
		tasks:       make(map[int64]domain.Task),
		subTasks:    make(map[int64]domain.SubTask),
		memberships: memberships,
	}
}

func (m *memProjectRepo) Create(ctx context.Context, project domain.Project) (domain.Project, error) {
	m.mu.Lock()
	project.CreatedAt = time.Now().UTC()
	m.projects[project.ID] = project
	m.mu.Unlock()
	m.memberships.put(domain.Membership{
		ProjectID: project.ID,
		MemberID:  project.OwnerID,
		Role:      domain.RoleOwner,
	})
	return project, nil
}

func (m *memProjectRepo) GetByID(ctx context.Context, projectID int64) (domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return project, nil
}

func (m *memProjectRepo) GetTask(ctx context.Context, taskID int64) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task, nil
}

func (m *memProjectRepo) GetSubTask(ctx context.Context, subTaskID int64) (domain.SubTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subTask, ok := m.subTasks[subTaskID]
	if !ok {
		return domain.SubTask{}, domain.ErrSubTaskNotFound
	}
	return subTask, nil
}

type memInvitationRepo struct {
	mu          sync.Mutex
	rows        map[string]domain.Invitation
	users       *memUserRepo
	memberships *memMembershipRepo
}

func newMemInvitationRepo(users *memUserRepo, memberships *memMembershipRepo) *memInvitationRepo {
	return &memInvitationRepo{
		rows:        make(map[string]domain.Invitation),
		users:       users,
		memberships: memberships,
	}
}

func (m *memInvitationRepo) Create(ctx context.Context, invitation domain.Invitation) (domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation.CreatedAt = time.Now().UTC()
	m.rows[invitation.ID] = invitation
	return invitation, nil
}

func (m *memInvitationRepo) GetByID(ctx context.Context, id string) (domain.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation, ok := m.rows[id]
	if !ok {
		return domain.Invitation{}, domain.ErrInvitationNotFound
	}
	return invitation, nil
}

func (m *memInvitationRepo) Accept(ctx context.Context, id string, membership domain.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invitation, ok := m.rows[id]
	if !ok || invitation.Status != domain.InvitationPending {
		return domain.ErrInvitationSettled
	}
	if _, exists, _ := m.memberships.Get(ctx, membership.ProjectID, membership.MemberID); exists {
		return domain.ErrAlreadyMember
	}
	invitation.Status = domain.InvitationAccepted
	m.rows[id] = invitation
	m.memberships.put(membership)
	return nil
}

func (m *memInvitationRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memInvitationRepo) ListRoster(ctx context.Context, projectID int64, limit, offset int32) ([]domain.RosterEntry, int64, error) {
	m.mu.Lock()
	invitations := make([]domain.Invitation, 0, len(m.rows))
	for _, invitation := range m.rows {
		if invitation.ProjectID == projectID {
			invitations = append(invitations, invitation)
		}
	}
	m.mu.Unlock()

	sort.Slice(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt.After(invitations[j].CreatedAt)
	})

	total := int64(len(invitations))
	if int(offset) >= len(invitations) {
		return nil, total, nil
	}
	invitations = invitations[offset:]
	if int(limit) < len(invitations) {
		invitations = invitations[:limit]
	}

	entries := make([]domain.RosterEntry, 0, len(invitations))
	for _, invitation := range invitations {
		user, err := m.users.GetByID(ctx, invitation.InviteeUserID)
		if err != nil {
			return nil, 0, err
		}
		taskCount, _ := m.memberships.AssignedTaskCount(ctx, projectID, user.ID)
		id := invitation.ID
		entries = append(entries, domain.RosterEntry{
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			ProfileImage: user.ProfileImage,
			Status:       invitation.Status,
			InvitationID: &id,
			TaskCount:    taskCount,
		})
	}
	return entries, total, nil
}
