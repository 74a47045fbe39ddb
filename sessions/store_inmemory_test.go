package sessions_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quangtn/github-session-gateway/credentials"
	"github.com/quangtn/github-session-gateway/sessions"
	"github.com/stretchr/testify/require"
)

func testLocator(name string) credentials.Locator {
	return credentials.Locator{Host: "github.com", Owner: "octocat", Name: name}
}

func testToken(seed string) string {
	return "ghp_" + (seed + strings.Repeat("x", 36))[:36]
}

// fakeClock is a step-controlled clock for deterministic timestamp tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	clock := newFakeClock()
	store := sessions.NewInMemoryStore(sessions.WithNowTime(clock.Now))

	id := store.Create(testLocator("hello-world"), testToken("a"))
	require.NotEmpty(t, id)

	record, ok := store.Get(id)
	require.True(t, ok)
	require.Equal(t, id, record.ID)
	require.Equal(t, testToken("a"), record.Token)
	require.Equal(t, "octocat/hello-world", record.Locator.String())
	require.Equal(t, record.CreatedAt, record.LastAccessedAt)

	clock.Advance(time.Minute)
	record, ok = store.Get(id)
	require.True(t, ok)
	require.True(t, record.LastAccessedAt.After(record.CreatedAt),
		"second Get must strictly advance LastAccessedAt")
}

func TestInMemoryStore_GetUnknownID(t *testing.T) {
	store := sessions.NewInMemoryStore()

	_, ok := store.Get("no-such-session")
	require.False(t, ok)

	_, ok = store.GetToken("no-such-session")
	require.False(t, ok)
}

func TestInMemoryStore_GetReturnsCopy(t *testing.T) {
	store := sessions.NewInMemoryStore()
	id := store.Create(testLocator("hello-world"), testToken("a"))
	require.True(t, store.Update(id, sessions.Fields{
		Metadata: &sessions.RepoMetadata{FullName: "octocat/hello-world", Stars: 3},
	}))

	record, ok := store.Get(id)
	require.True(t, ok)
	record.Metadata.Stars = 9999
	record.Token = "mutated"

	fresh, ok := store.Get(id)
	require.True(t, ok)
	require.Equal(t, 3, fresh.Metadata.Stars)
	require.Equal(t, testToken("a"), fresh.Token)
}

func TestInMemoryStore_GetToken(t *testing.T) {
	clock := newFakeClock()
	store := sessions.NewInMemoryStore(sessions.WithNowTime(clock.Now))
	id := store.Create(testLocator("hello-world"), testToken("b"))

	clock.Advance(time.Minute)
	token, ok := store.GetToken(id)
	require.True(t, ok)
	require.Equal(t, testToken("b"), token)

	record, ok := store.Get(id)
	require.True(t, ok)
	require.True(t, record.LastAccessedAt.After(record.CreatedAt),
		"GetToken must touch the record")
}

func TestInMemoryStore_Update(t *testing.T) {
	store := sessions.NewInMemoryStore()
	id := store.Create(testLocator("hello-world"), testToken("c"))

	ok := store.Update(id, sessions.Fields{
		Metadata: &sessions.RepoMetadata{FullName: "octocat/hello-world", Language: "Go"},
	})
	require.True(t, ok)

	record, found := store.Get(id)
	require.True(t, found)
	require.NotNil(t, record.Metadata)
	require.Equal(t, "Go", record.Metadata.Language)
	require.Equal(t, testToken("c"), record.Token, "Update must not touch the token")

	require.False(t, store.Update("no-such-session", sessions.Fields{}))
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := sessions.NewInMemoryStore()
	id := store.Create(testLocator("hello-world"), testToken("d"))

	require.True(t, store.Delete(id))
	require.False(t, store.Delete(id), "second delete reports false, not an error")

	_, ok := store.Get(id)
	require.False(t, ok)
}

func TestInMemoryStore_SweepExpired(t *testing.T) {
	clock := newFakeClock()
	store := sessions.NewInMemoryStore(sessions.WithNowTime(clock.Now))

	stale := store.Create(testLocator("stale"), testToken("e"))
	clock.Advance(2 * time.Hour)
	fresh := store.Create(testLocator("fresh"), testToken("f"))

	removed := store.SweepExpired(time.Hour)
	require.Equal(t, 1, removed)

	_, ok := store.Get(stale)
	require.False(t, ok)
	_, ok = store.Get(fresh)
	require.True(t, ok)
}

func TestInMemoryStore_SweepSparesTouchedSessions(t *testing.T) {
	clock := newFakeClock()
	store := sessions.NewInMemoryStore(sessions.WithNowTime(clock.Now))

	id := store.Create(testLocator("hello-world"), testToken("g"))
	clock.Advance(2 * time.Hour)

	// A touch just before the sweep resets the idle age.
	_, ok := store.Get(id)
	require.True(t, ok)

	require.Equal(t, 0, store.SweepExpired(time.Hour))
	_, ok = store.Get(id)
	require.True(t, ok)
}

func TestInMemoryStore_ListSummariesNeverExposesTokens(t *testing.T) {
	store := sessions.NewInMemoryStore()

	tokens := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		token := testToken(fmt.Sprintf("tok%d", i))
		tokens = append(tokens, token)
		store.Create(testLocator(fmt.Sprintf("repo-%d", i)), token)
	}

	summaries := store.ListSummaries()
	require.Len(t, summaries, 5)

	serialized, err := json.Marshal(summaries)
	require.NoError(t, err)
	for _, token := range tokens {
		require.NotContains(t, string(serialized), token)
	}
}

func TestInMemoryStore_ConcurrentCreateAndRead(t *testing.T) {
	const n = 64

	store := sessions.NewInMemoryStore()
	ids := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := store.Create(testLocator(fmt.Sprintf("repo-%d", i)), testToken(fmt.Sprintf("t%d", i)))
			record, ok := store.Get(id)
			if ok && record.ID == id {
				ids[i] = id
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for i, id := range ids {
		require.NotEmpty(t, id, "goroutine %d lost its record", i)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n, "ids must be distinct")
	require.Equal(t, n, store.Len())
}

func TestInMemoryStore_ConcurrentSweepAndCreate(t *testing.T) {
	store := sessions.NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Create(testLocator(fmt.Sprintf("repo-%d", i)), testToken(fmt.Sprintf("s%d", i)))
			store.SweepExpired(time.Hour)
		}(i)
	}
	wg.Wait()

	// Nothing is older than an hour, so every record survives all sweeps.
	require.Equal(t, 16, store.Len())
}
