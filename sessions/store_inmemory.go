package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quangtn/github-session-gateway/credentials"
)

// InMemoryStore is the volatile Store implementation. All state is lost on
// process restart; persistence is explicitly not a goal.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	nowFunc func() time.Time
}

// InMemoryStoreOption modifies an InMemoryStore at construction time.
type InMemoryStoreOption func(*InMemoryStore)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.nowFunc = nowFunc
	}
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore(options ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		records: make(map[string]*Record),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ Store = (*InMemoryStore)(nil)

// Create stores a new record and returns its identifier. Identifiers are
// random UUIDs and are never reused, so an existing record cannot be
// overwritten.
func (s *InMemoryStore) Create(locator credentials.Locator, token string) string {
	now := s.nowFunc()
	record := &Record{
		ID:             uuid.NewString(),
		Token:          token,
		Locator:        locator,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return record.ID
}

// Get returns a copy of the record and touches its last-accessed time. The
// touch happens atomically with the lookup so two concurrent readers cannot
// lose an update.
func (s *InMemoryStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	record.LastAccessedAt = s.nowFunc()

	copied := *record
	if record.Metadata != nil {
		m := *record.Metadata
		copied.Metadata = &m
	}
	return copied, true
}

// GetToken returns the record's token with Get's touch semantics.
func (s *InMemoryStore) GetToken(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return "", false
	}
	record.LastAccessedAt = s.nowFunc()
	return record.Token, true
}

// Update merges the supplied fields into an existing record and touches it.
func (s *InMemoryStore) Update(id string, fields Fields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return false
	}
	if fields.Metadata != nil {
		m := *fields.Metadata
		record.Metadata = &m
	}
	record.LastAccessedAt = s.nowFunc()
	return true
}

// Delete removes the record unconditionally. A second delete of the same id
// reports false rather than an error.
func (s *InMemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

// SweepExpired removes every record whose last access precedes now-maxAge.
// The cutoff is computed once under the lock, so a record created or touched
// during the sweep is never eligible for it.
func (s *InMemoryStore) SweepExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.nowFunc().Add(-maxAge)
	removed := 0
	for id, record := range s.records {
		if record.LastAccessedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// ListSummaries returns the token-free projection of every live record.
// Listing does not count as an access, so timestamps are left alone.
func (s *InMemoryStore) ListSummaries() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]Summary, 0, len(s.records))
	for _, record := range s.records {
		summaries = append(summaries, Summary{
			ID:             record.ID,
			Locator:        record.Locator,
			CreatedAt:      record.CreatedAt,
			LastAccessedAt: record.LastAccessedAt,
		})
	}
	return summaries
}

// Len reports the number of live records.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
