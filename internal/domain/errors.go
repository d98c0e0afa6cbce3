package domain

import "errors"

// Closed set of domain error variants. Services return exactly these (wrapped
// with %w where context helps); the HTTP layer maps each one to a status and
// nothing else crosses the boundary typed.
var (
	// ErrInvalidCredentials covers both "no such user" and "wrong password".
	// The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("email not found or password mismatch")

	// ErrTokenMalformed means the token could not be parsed or its signature
	// did not verify.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenExpired covers a past-expiry token and, on rotation, a token
	// that matches no active session: already rotated, revoked, or never
	// issued. A rotated refresh token can therefore never succeed again.
	ErrTokenExpired = errors.New("token expired")

	// ErrEmailTaken signals a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")

	ErrUserNotFound    = errors.New("user not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubTaskNotFound = errors.New("sub-task not found")

	// ErrInvitationNotFound is returned both when the invitation does not
	// exist and when it belongs to someone else, so a caller cannot probe
	// for invitation existence.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrInvitationSettled signals an accept against a non-PENDING
	// invitation.
	ErrInvitationSettled = errors.New("invitation already settled")

	// ErrAlreadyMember signals an invite for a user who already holds a
	// membership row in the project.
	ErrAlreadyMember = errors.New("already a project member")

	// ErrUnauthenticated signals a failed federated code exchange.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid request")
)
