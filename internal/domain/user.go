// Package domain contains the core data types for the stop-finder application.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
// PasswordHash is a bcrypt digest and never leaves the repo/service layers —
// handler responses must use fields from this struct selectively.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
