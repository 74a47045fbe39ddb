// Package sessions owns the session-scoped credential records. Every access
// to a record goes through a Store; no caller holds a live reference across
// calls.
package sessions

import (
	"time"

	"github.com/quangtn/github-session-gateway/credentials"
)

// Record binds an opaque session identifier to an access token and the
// repository it scopes. The identifier is a bearer capability: anyone holding
// it can use the token.
type Record struct {
	ID             string              // Unique session identifier (UUID)
	Token          string              // Access token; set once at creation, never mutated
	Locator        credentials.Locator // Normalized repository identity
	CreatedAt      time.Time
	LastAccessedAt time.Time     // Refreshed on every successful read
	Metadata       *RepoMetadata // Advisory, populated on first successful probe
}

// RepoMetadata caches display fields from the remote repository record. It is
// never a source of truth for authorization.
type RepoMetadata struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Language    string `json:"language"`
}

// Summary is the projection exposed by listings. It has no token field by
// construction, so no caller can accidentally serialize the secret.
type Summary struct {
	ID             string              `json:"id"`
	Locator        credentials.Locator `json:"repository"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
}

// Fields carries the optional values an Update may merge into a record.
// Nil fields are left untouched.
type Fields struct {
	Metadata *RepoMetadata
}

// Store is the synchronization boundary around all records. Every operation
// is safe for concurrent use.
type Store interface {
	// Create stores a new record for the locator/token pair and returns its
	// generated identifier.
	Create(locator credentials.Locator, token string) string

	// Get returns a copy of the record and refreshes its last-accessed time.
	Get(id string) (Record, bool)

	// GetToken returns the record's token with the same touch semantics as Get.
	GetToken(id string) (string, bool)

	// Update merges the supplied fields into an existing record.
	Update(id string, fields Fields) bool

	// Delete removes the record. It reports false if the record was already
	// gone; repeated deletes are not an error.
	Delete(id string) bool

	// SweepExpired removes every record whose last access is older than
	// maxAge and returns the number removed.
	SweepExpired(maxAge time.Duration) int

	// ListSummaries returns the token-free projection of every live record.
	ListSummaries() []Summary

	// Len reports the number of live records.
	Len() int
}
