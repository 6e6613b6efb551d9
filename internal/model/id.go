package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// derivedID hashes a tagged input down to a short stable identifier.
// The tag keeps user and comic id spaces disjoint even for colliding inputs.
func derivedID(prefix, input string) string {
	sum := sha256.Sum256([]byte(input))
	return prefix + "_" + hex.EncodeToString(sum[:10])
}

// UserID derives the internal user id from a GitHub account id.
// Deterministic: the same GitHub account always maps to the same id.
func UserID(githubID int64) string {
	return derivedID("u", fmt.Sprintf("user:%d", githubID))
}

// ComicID derives the cached-comic id from its repository id and slug.
// Because the id is a pure function of the cache key, two concurrent
// refreshes of the same (repo, slug) insert the same row id and the
// duplicate insert is ignored instead of racing.
func ComicID(repoID, slug string) string {
	return derivedID("c", fmt.Sprintf("comic:%s:%s", repoID, slug))
}
