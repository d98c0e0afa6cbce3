package service

import (
	"context"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/repository"
)

// ResourceRef identifies a nested resource. Exactly one non-zero field is
// expected; the most specific one wins when several are set.
type ResourceRef struct {
	SubTaskID int64
	TaskID    int64
	ProjectID int64
}

// PermissionResolver maps a nested resource reference to its owning project
// and answers the two authorization questions the engines need.
type PermissionResolver struct {
	projects    repository.ProjectRepository
	memberships repository.MembershipRepository
}

// NewPermissionResolver wires dependencies.
func NewPermissionResolver(projects repository.ProjectRepository, memberships repository.MembershipRepository) *PermissionResolver {
	return &PermissionResolver{projects: projects, memberships: memberships}
}

// ResolveProjectID walks the containment chain sub-task -> task -> project.
// Any absent link fails with the corresponding not-found variant.
func (r *PermissionResolver) ResolveProjectID(ctx context.Context, ref ResourceRef) (int64, error) {
	if ref.SubTaskID != 0 {
		subTask, err := r.projects.GetSubTask(ctx, ref.SubTaskID)
		if err != nil {
			return 0, err
		}
		task, err := r.projects.GetTask(ctx, subTask.TaskID)
		if err != nil {
			return 0, err
		}
		return task.ProjectID, nil
	}
	if ref.TaskID != 0 {
		task, err := r.projects.GetTask(ctx, ref.TaskID)
		if err != nil {
			return 0, err
		}
		return task.ProjectID, nil
	}
	if ref.ProjectID != 0 {
		return ref.ProjectID, nil
	}
	return 0, domain.ErrValidation
}

// RequireOwner resolves the reference and loads its project, failing
// Forbidden unless userID owns it.
func (r *PermissionResolver) RequireOwner(ctx context.Context, ref ResourceRef, userID int64) (domain.Project, error) {
	projectID, err := r.ResolveProjectID(ctx, ref)
	if err != nil {
		return domain.Project{}, err
	}
	project, err := r.projects.GetByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if project.OwnerID != userID {
		return domain.Project{}, domain.ErrForbidden
	}
	return project, nil
}

// RequireMember resolves the reference and fails Forbidden unless userID
// holds a membership row in the project.
func (r *PermissionResolver) RequireMember(ctx context.Context, ref ResourceRef, userID int64) (int64, error) {
	projectID, err := r.ResolveProjectID(ctx, ref)
	if err != nil {
		return 0, err
	}
	_, ok, err := r.memberships.Get(ctx, projectID, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.ErrForbidden
	}
	return projectID, nil
}
