package domain

import "time"

// User represents an account that can authenticate and join projects.
type User struct {
	ID           int64
	Email        string
	PasswordHash string // empty for accounts created through a federated provider
	Name         string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FederatedIdentity is the profile a provider resolves from an authorization
// code. It carries everything needed to upsert a User.
type FederatedIdentity struct {
	Email             string
	Name              string
	ProfileImage      string
	Provider          string
	ProviderAccountID string
}
