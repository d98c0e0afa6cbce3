package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

// respondError maps a domain error onto its HTTP status. Anything outside
// the domain set is a 500 with the detail withheld from the client.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "server_error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrTokenExpired):
		status, code = http.StatusUnauthorized, "token_expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		status, code = http.StatusUnauthorized, "invalid_token"
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Deliberately 404: absent account and wrong password answer alike.
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrSubTaskNotFound),
		errors.Is(err, domain.ErrInvitationNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrInvitationSettled):
		status, code = http.StatusConflict, "conflict"
	}

	description := err.Error()
	if status == http.StatusInternalServerError {
		description = "Internal server error."
	}
	c.JSON(status, gin.H{"error": code, "error_description": description})
}
