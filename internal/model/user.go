// Package model defines the data structures shared across the application.
package model

import "time"

// User is an account bound to an external GitHub identity.
//
// The internal ID is derived deterministically from the GitHub user ID (see
// UserID), so re-login can never mint a second account for the same person.
// GitHubID carries the UNIQUE constraint in the database; login, name, and
// avatar are refreshed from GitHub on every successful callback.
type User struct {
	ID        string    `json:"id"`
	GitHubID  int64     `json:"githubId"`
	Login     string    `json:"login"`
	Name      string    `json:"name"`      // display name, may be empty
	AvatarURL string    `json:"avatarUrl"` // profile picture URL, may be empty
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
