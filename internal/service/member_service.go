package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/repository"
)

// MemberService performs the invitation and membership lifecycle: offering,
// accepting and cancelling invitations, and removing members. All
// authorization goes through the PermissionResolver.
type MemberService struct {
	users       repository.UserRepository
	invitations repository.InvitationRepository
	memberships repository.MembershipRepository
	resolver    *PermissionResolver
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewMemberService wires dependencies.
func NewMemberService(users repository.UserRepository, invitations repository.InvitationRepository, memberships repository.MembershipRepository, resolver *PermissionResolver, logger *zap.Logger) *MemberService {
	return &MemberService{
		users:       users,
		invitations: invitations,
		memberships: memberships,
		resolver:    resolver,
		logger:      logger,
		tracer:      otel.Tracer("github.com/GeonSoon1/moonshot-myself/internal/service"),
	}
}

// Invite offers project membership to the user behind inviteeEmail. Only the
// project owner may invite; inviting an existing member is a conflict and
// leaves no invitation row behind.
func (s *MemberService) Invite(ctx context.Context, projectID int64, inviteeEmail string, actingID int64) (domain.Invitation, error) {
	ctx, span := s.startSpan(ctx, "MemberService.Invite")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(inviteeEmail))
	if email == "" {
		return domain.Invitation{}, domain.ErrValidation
	}

	if _, err := s.resolver.RequireOwner(ctx, ResourceRef{ProjectID: projectID}, actingID); err != nil {
		return domain.Invitation{}, err
	}

	invitee, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.Invitation{}, err
	}

	if _, member, err := s.memberships.Get(ctx, projectID, invitee.ID); err != nil {
		span.RecordError(err)
		return domain.Invitation{}, err
	} else if member {
		return domain.Invitation{}, domain.ErrAlreadyMember
	}

	invitation, err := s.invitations.Create(ctx, domain.Invitation{
		// Invitation ids act as the capability presented on accept, so they
		// are random and unguessable rather than sequential.
		ID:            uuid.NewString(),
		ProjectID:     projectID,
		InviteeUserID: invitee.ID,
		Status:        domain.InvitationPending,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Invitation{}, err
	}

	s.audit("invitation.create", "invitation_id", invitation.ID, "project_id", projectID, "invitee_id", invitee.ID)
	return invitation, nil
}

// Accept settles a PENDING invitation for its invitee: the status flip and
// the membership insert commit atomically. An absent invitation and someone
// else's invitation fail identically, so existence cannot be probed.
func (s *MemberService) Accept(ctx context.Context, invitationID string, actingID int64) error {
	ctx, span := s.startSpan(ctx, "MemberService.Accept")
	defer span.End()

	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation.InviteeUserID != actingID {
		return domain.ErrInvitationNotFound
	}
	if invitation.Status != domain.InvitationPending {
		return domain.ErrInvitationSettled
	}

	id := invitation.ID
	err = s.invitations.Accept(ctx, id, domain.Membership{
		ProjectID:    invitation.ProjectID,
		MemberID:     actingID,
		Role:         domain.RoleMember,
		InvitationID: &id,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvitationSettled) && !errors.Is(err, domain.ErrAlreadyMember) {
			span.RecordError(err)
		}
		return err
	}

	s.audit("invitation.accept", "invitation_id", id, "project_id", invitation.ProjectID, "member_id", actingID)
	return nil
}

// Cancel hard-deletes an invitation whatever its status. Only the owner of
// the invitation's project may cancel.
func (s *MemberService) Cancel(ctx context.Context, invitationID string, actingID int64) error {
	ctx, span := s.startSpan(ctx, "MemberService.Cancel")
	defer span.End()

	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}

	if _, err := s.resolver.RequireOwner(ctx, ResourceRef{ProjectID: invitation.ProjectID}, actingID); err != nil {
		return err
	}

	if err := s.invitations.Delete(ctx, invitation.ID); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit("invitation.cancel", "invitation_id", invitation.ID, "project_id", invitation.ProjectID)
	return nil
}

// RemoveMember deletes the target's membership row. Only the project owner
// may remove, and the owner cannot remove itself. Associated invitation rows
// are left untouched.
func (s *MemberService) RemoveMember(ctx context.Context, projectID, targetMemberID, actingID int64) error {
	ctx, span := s.startSpan(ctx, "MemberService.RemoveMember")
	defer span.End()

	project, err := s.resolver.RequireOwner(ctx, ResourceRef{ProjectID: projectID}, actingID)
	if err != nil {
		return err
	}
	if targetMemberID == project.OwnerID {
		return domain.ErrValidation
	}

	if err := s.memberships.Delete(ctx, projectID, targetMemberID); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit("membership.remove", "project_id", projectID, "member_id", targetMemberID)
	return nil
}

// Roster is one page of a project member listing.
type Roster struct {
	Data  []domain.RosterEntry
	Total int64
}

// List returns the paged invitation roster, with the owner prepended on the
// first page. Any project member may list.
func (s *MemberService) List(ctx context.Context, projectID int64, page, limit int32, actingID int64) (Roster, error) {
	ctx, span := s.startSpan(ctx, "MemberService.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	if _, err := s.resolver.RequireMember(ctx, ResourceRef{ProjectID: projectID}, actingID); err != nil {
		return Roster{}, err
	}

	project, err := s.resolver.projects.GetByID(ctx, projectID)
	if err != nil {
		return Roster{}, err
	}

	entries, total, err := s.invitations.ListRoster(ctx, projectID, limit, (page-1)*limit)
	if err != nil {
		span.RecordError(err)
		return Roster{}, err
	}
	for i := range entries {
		entries[i].Status = strings.ToLower(entries[i].Status)
	}

	if page == 1 {
		owner, err := s.users.GetByID(ctx, project.OwnerID)
		if err != nil {
			return Roster{}, err
		}
		taskCount, err := s.memberships.AssignedTaskCount(ctx, projectID, owner.ID)
		if err != nil {
			span.RecordError(err)
			return Roster{}, err
		}
		entries = append([]domain.RosterEntry{{
			UserID:       owner.ID,
			Name:         owner.Name,
			Email:        owner.Email,
			ProfileImage: owner.ProfileImage,
			Status:       "accepted",
			TaskCount:    taskCount,
		}}, entries...)
	}

	return Roster{Data: entries, Total: total + 1}, nil
}

func (s *MemberService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *MemberService) audit(event string, attrs ...any) {
	logger := s.logger
	if logger == nil {
		logger = zap.L()
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}
