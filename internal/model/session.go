package model

import "time"

// Session is a server-tracked authenticated-browser capability.
//
// The ID is an opaque random value carried in the session cookie; it is the
// entire credential, so it must be unguessable. Expiry is absolute: a
// session past ExpiresAt is treated exactly like one that never existed.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
