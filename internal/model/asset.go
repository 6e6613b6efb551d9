package model

import "time"

// Asset tracks one stored object in the blob store.
//
// Rows are maintained by the blob store itself, not by the core pipeline:
// Put inserts, Get/Head refresh LastReferencedAt.
type Asset struct {
	Key              string    `json:"key"` // opaque object-store key
	Owner            string    `json:"owner"`
	ContentType      string    `json:"contentType"`
	CreatedAt        time.Time `json:"createdAt"`
	LastReferencedAt time.Time `json:"lastReferencedAt"`
}
