package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
	"github.com/GeonSoon1/moonshot-myself/internal/http/middleware"
	"github.com/GeonSoon1/moonshot-myself/internal/service"
)

// MemberHandler exposes invitation and membership endpoints.
type MemberHandler struct {
	Members *service.MemberService
}

// NewMemberHandler creates the handler set.
func NewMemberHandler(members *service.MemberService) *MemberHandler {
	return &MemberHandler{Members: members}
}

// Invite creates a pending invitation for a registered user.
func (h *MemberHandler) Invite(c *gin.Context) {
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

	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.ErrValidation)
		return
	}

	invitation, err := h.Members.Invite(c.Request.Context(), projectID, req.Email, actingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"invitationId": invitation.ID,
		"projectId":    strconv.FormatInt(invitation.ProjectID, 10),
		"status":       invitation.Status,
		"createdAt":    invitation.CreatedAt,
	})
}

// Accept settles a pending invitation for the authenticated invitee.
func (h *MemberHandler) Accept(c *gin.Context) {
	actingID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	invitationID := c.Param("invitationId")

	if err := h.Members.Accept(c.Request.Context(), invitationID, actingID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// Cancel withdraws an invitation; only the project owner may do so.
func (h *MemberHandler) Cancel(c *gin.Context) {
	actingID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return
	}
	invitationID := c.Param("invitationId")

	if err := h.Members.Cancel(c.Request.Context(), invitationID, actingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove evicts a member from the project.
func (h *MemberHandler) Remove(c *gin.Context) {
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
	memberID, err := pathID(c, "memberId")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Members.RemoveMember(c.Request.Context(), projectID, memberID, actingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns the paged member roster.
func (h *MemberHandler) List(c *gin.Context) {
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
	page := queryInt32(c, "page", 1)
	limit := queryInt32(c, "limit", 6)

	roster, err := h.Members.List(c.Request.Context(), projectID, page, limit, actingID)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]gin.H, 0, len(roster.Data))
	for _, entry := range roster.Data {
		item := gin.H{
			"userId":       strconv.FormatInt(entry.UserID, 10),
			"name":         entry.Name,
			"email":        entry.Email,
			"profileImage": entry.ProfileImage,
			"status":       entry.Status,
			"taskCount":    entry.TaskCount,
		}
		if entry.InvitationID != nil {
			item["invitationId"] = *entry.InvitationID
		}
		entries = append(entries, item)
	}
	c.JSON(http.StatusOK, gin.H{"data": entries, "total": roster.Total})
}

func queryInt32(c *gin.Context, name string, fallback int32) int32 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || value < 1 {
		return fallback
	}
	return int32(value)
}
