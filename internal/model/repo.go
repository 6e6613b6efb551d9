package model

import "time"

// Repo is an administrator-provisioned repository registration.
//
// It maps an external (owner, name) pair to the branch and manifest path to
// fetch from. The server only ever reads these rows; provisioning happens
// out of band.
type Repo struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	Branch       string    `json:"branch"`
	ManifestPath string    `json:"manifestPath"`
	UserID       string    `json:"userId"` // owning user
	CreatedAt    time.Time `json:"createdAt"`
}
