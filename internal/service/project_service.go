package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/repository"
)

// ProjectService covers the slice of project lifecycle the membership engine
// depends on: creation (which establishes the owner's membership) and reads.
type ProjectService struct {
	projects  repository.ProjectRepository
	resolver  *PermissionResolver
	snowflake *snowflake.Node
	logger    *zap.Logger
}

// NewProjectService wires dependencies.
func NewProjectService(projects repository.ProjectRepository, resolver *PermissionResolver, node *snowflake.Node, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, resolver: resolver, snowflake: node, logger: logger}
}

// Create persists a project owned by actingID. The owner's OWNER membership
// row is written in the same transaction by the repository.
func (s *ProjectService) Create(ctx context.Context, name, description string, actingID int64) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, domain.ErrValidation
	}

	project, err := s.projects.Create(ctx, domain.Project{
		ID:          s.snowflake.Generate().Int64(),
		OwnerID:     actingID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		return domain.Project{}, err
	}

	if s.logger != nil {
		s.logger.Info("audit",
			zap.String("event", "project.create"),
			zap.Time("timestamp", time.Now().UTC()),
			zap.Int64("project_id", project.ID),
			zap.Int64("owner_id", actingID),
		)
	}
	return project, nil
}

// Get returns the project when actingID is one of its members.
func (s *ProjectService) Get(ctx context.Context, projectID, actingID int64) (domain.Project, error) {
	if _, err := s.resolver.RequireMember(ctx, ResourceRef{ProjectID: projectID}, actingID); err != nil {
		return domain.Project{}, err
	}
	return s.projects.GetByID(ctx, projectID)
}
