package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/http/middleware"
	"github.com/GeonSoon1/moonshot-myself/internal/service"
)

// ProjectHandler exposes project endpoints.
type ProjectHandler struct {
	Projects *service.ProjectService
}

// NewProjectHandler creates the handler set.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{Projects: projects}
}

// Create creates a project owned by the caller.
func (h *ProjectHandler) Create(c *gin.Context) {
	actingID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	project, err := h.Projects.Create(c.Request.Context(), req.Name, req.Description, actingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectPayload(project))
}

// Get returns a project the caller belongs to.
func (h *ProjectHandler) Get(c *gin.Context) {
	actingID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.Projects.Get(c.Request.Context(), projectID, actingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectPayload(project))
}

func projectPayload(project domain.Project) gin.H {
	return gin.H{
		"id":          strconv.FormatInt(project.ID, 10),
		"ownerId":     strconv.FormatInt(project.OwnerID, 10),
		"name":        project.Name,
		"description": project.Description,
		"createdAt":   project.CreatedAt,
	}
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation
	}
	return id, nil
}
