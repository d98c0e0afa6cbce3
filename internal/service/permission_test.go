package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/service"
)

func newPermissionFixture(t *testing.T) (*memProjectRepo, *memMembershipRepo, *service.PermissionResolver) {
	t.Helper()
	memberships := newMemMembershipRepo()
	projects := newMemProjectRepo(memberships)
	_, err := projects.Create(context.Background(), domain.Project{ID: 1, OwnerID: 1, Name: "Moon"})
	require.NoError(t, err)
	projects.tasks[10] = domain.Task{ID: 10, ProjectID: 1}
	projects.subTasks[100] = domain.SubTask{ID: 100, TaskID: 10}
	return projects, memberships, service.NewPermissionResolver(projects, memberships)
}

func TestResolveProjectIDWalksContainment(t *testing.T) {
	_, _, resolver := newPermissionFixture(t)

	for _, ref := range []service.ResourceRef{
		{ProjectID: 1},
		{TaskID: 10},
		{SubTaskID: 100},
	} {
		projectID, err := resolver.ResolveProjectID(context.Background(), ref)
		require.NoError(t, err)
		require.Equal(t, int64(1), projectID)
	}
}

func TestResolveProjectIDBrokenChain(t *testing.T) {
	_, _, resolver := newPermissionFixture(t)

	_, err := resolver.ResolveProjectID(context.Background(), service.ResourceRef{SubTaskID: 999})
	require.ErrorIs(t, err, domain.ErrSubTaskNotFound)

	_, err = resolver.ResolveProjectID(context.Background(), service.ResourceRef{TaskID: 999})
	require.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = resolver.ResolveProjectID(context.Background(), service.ResourceRef{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRequireOwner(t *testing.T) {
	_, _, resolver := newPermissionFixture(t)

	project, err := resolver.RequireOwner(context.Background(), service.ResourceRef{ProjectID: 1}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), project.ID)

	_, err = resolver.RequireOwner(context.Background(), service.ResourceRef{ProjectID: 1}, 2)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = resolver.RequireOwner(context.Background(), service.ResourceRef{ProjectID: 999}, 1)
	require.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestRequireMember(t *testing.T) {
	_, memberships, resolver := newPermissionFixture(t)

	// The owner's implicit membership row satisfies the check; a stranger
	// does not.
	projectID, err := resolver.RequireMember(context.Background(), service.ResourceRef{TaskID: 10}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), projectID)

	_, err = resolver.RequireMember(context.Background(), service.ResourceRef{ProjectID: 1}, 2)
	require.ErrorIs(t, err, domain.ErrForbidden)

	memberships.put(domain.Membership{ProjectID: 1, MemberID: 2, Role: domain.RoleMember})
	_, err = resolver.RequireMember(context.Background(), service.ResourceRef{ProjectID: 1}, 2)
	require.NoError(t, err)
}
