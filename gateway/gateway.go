// Package gateway is the façade that turns session-scoped logical operations
// into authenticated remote calls. It resolves the session's token through
// the store, performs exactly one remote call or process invocation, and
// returns either a structured payload or an error from the shared taxonomy.
package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/quangtn/github-session-gateway/credentials"
	"github.com/quangtn/github-session-gateway/github"
	"github.com/quangtn/github-session-gateway/internal/errors"
	"github.com/quangtn/github-session-gateway/sessions"
)

// BinaryPlaceholder replaces file text when the payload does not decode to
// valid UTF-8. The operation still succeeds.
const BinaryPlaceholder = "[binary file - content not displayable]"

// Recorder receives gateway telemetry. All methods must be safe for
// concurrent use.
type Recorder interface {
	RecordOperation(operation string)
	RecordOperationError(operation, kind string)
	SetActiveSessions(n int)
	RecordSweep(removed int)
	RecordCloneStarted()
}

// Gateway binds a session store to the remote client and the clone runner.
// It is constructed explicitly and injected where needed; there is no global
// instance.
type Gateway struct {
	store   sessions.Store
	client  *github.Client
	cloner  *github.CloneRunner
	metrics Recorder
}

// Option modifies a Gateway at construction time.
type Option func(*Gateway)

// WithRecorder attaches a telemetry recorder.
func WithRecorder(recorder Recorder) Option {
	return func(g *Gateway) {
		g.metrics = recorder
	}
}

// New creates a Gateway. All three collaborators are required.
func New(store sessions.Store, client *github.Client, cloner *github.CloneRunner, options ...Option) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("[gateway.New] session store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("[gateway.New] github client is required")
	}
	if cloner == nil {
		return nil, fmt.Errorf("[gateway.New] clone runner is required")
	}

	g := &Gateway{store: store, client: client, cloner: cloner}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// SessionInfo is the payload returned by CreateSession.
type SessionInfo struct {
	ID         string                 `json:"session_id"`
	Repository credentials.Locator    `json:"repository"`
	TokenKind  credentials.TokenKind  `json:"token_kind"`
	Metadata   *sessions.RepoMetadata `json:"metadata,omitempty"`
}

// CreateSession validates the inputs, stores a new session and probes the
// remote API with the fresh token. Creation is all-or-nothing: if the probe
// fails the record is deleted before the error is returned.
func (g *Gateway) CreateSession(ctx context.Context, rawURL, token string) (*SessionInfo, error) {
	locator, err := credentials.ParseRepositoryURL(rawURL)
	if err != nil {
		return nil, g.fail("create_session", err)
	}
	kind, err := credentials.ValidateTokenFormat(token)
	if err != nil {
		return nil, g.fail("create_session", err)
	}
	token = strings.TrimSpace(token)

	id := g.store.Create(locator, token)

	repo, err := g.client.GetRepository(ctx, token, locator.Owner, locator.Name)
	if err != nil {
		g.store.Delete(id)
		return nil, g.fail("create_session", err)
	}

	metadata := &sessions.RepoMetadata{
		FullName:    repo.FullName,
		Description: repo.Description,
		Stars:       repo.Stars,
		Language:    repo.Language,
	}
	g.store.Update(id, sessions.Fields{Metadata: metadata})

	g.record("create_session")
	return &SessionInfo{ID: id, Repository: locator, TokenKind: kind, Metadata: metadata}, nil
}

// GetRepositoryInfo returns the repository metadata for the session's scope.
func (g *Gateway) GetRepositoryInfo(ctx context.Context, sessionID string) (*github.Repository, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("get_repository_info", err)
	}
	repo, err := g.client.GetRepository(ctx, record.Token, record.Locator.Owner, record.Locator.Name)
	if err != nil {
		return nil, g.fail("get_repository_info", err)
	}
	g.record("get_repository_info")
	return repo, nil
}

// ListContent lists a directory (or a single file, normalized to a
// one-element list) at path/ref.
func (g *Gateway) ListContent(ctx context.Context, sessionID, path, ref string) ([]github.ContentEntry, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("list_content", err)
	}
	entries, err := g.client.GetContents(ctx, record.Token, record.Locator.Owner, record.Locator.Name, path, ref)
	if err != nil {
		return nil, g.fail("list_content", err)
	}
	g.record("list_content")
	return entries, nil
}

// FileContent combines a content entry with its decoded text.
type FileContent struct {
	Entry  github.ContentEntry `json:"entry"`
	Text   string              `json:"text"`
	Binary bool                `json:"binary"`
}

// GetFileContent fetches one file and decodes its payload. A payload that is
// not valid UTF-8 yields the placeholder text and Binary=true rather than an
// error.
func (g *Gateway) GetFileContent(ctx context.Context, sessionID, path, ref string) (*FileContent, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("get_file_content", err)
	}
	entry, err := g.client.GetFileContent(ctx, record.Token, record.Locator.Owner, record.Locator.Name, path, ref)
	if err != nil {
		return nil, g.fail("get_file_content", err)
	}

	content := &FileContent{Entry: *entry}
	if entry.Encoding == "base64" && entry.Content != "" {
		decoded, decodeErr := base64.StdEncoding.DecodeString(
			strings.ReplaceAll(entry.Content, "\n", ""))
		if decodeErr != nil || !utf8.Valid(decoded) {
			content.Text = BinaryPlaceholder
			content.Binary = true
			if g.metrics != nil {
				g.metrics.RecordOperationError("get_file_content", string(errors.KindBinaryUnsupported))
			}
		} else {
			content.Text = string(decoded)
		}
	}

	g.record("get_file_content")
	return content, nil
}

// SearchCode runs a code search automatically scoped to the session's
// repository.
func (g *Gateway) SearchCode(ctx context.Context, sessionID, query string) (*github.SearchCodeResult, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("search_code", err)
	}

	scoped := query
	if record.Locator.Owner != "" && record.Locator.Name != "" {
		scoped = fmt.Sprintf("%s repo:%s", query, record.Locator.String())
	}

	result, err := g.client.SearchCode(ctx, record.Token, scoped)
	if err != nil {
		return nil, g.fail("search_code", err)
	}
	g.record("search_code")
	return result, nil
}

// ListBranches lists the repository's branches.
func (g *Gateway) ListBranches(ctx context.Context, sessionID string) ([]github.Branch, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("list_branches", err)
	}
	branches, err := g.client.ListBranches(ctx, record.Token, record.Locator.Owner, record.Locator.Name)
	if err != nil {
		return nil, g.fail("list_branches", err)
	}
	g.record("list_branches")
	return branches, nil
}

// ListCommits lists commits, optionally filtered by starting sha and path.
func (g *Gateway) ListCommits(ctx context.Context, sessionID, sha, path string, perPage int) ([]github.Commit, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("list_commits", err)
	}
	commits, err := g.client.ListCommits(ctx, record.Token, record.Locator.Owner, record.Locator.Name, sha, path, perPage)
	if err != nil {
		return nil, g.fail("list_commits", err)
	}
	g.record("list_commits")
	return commits, nil
}

// GetCommit fetches one commit with its changed files.
func (g *Gateway) GetCommit(ctx context.Context, sessionID, sha string) (*github.Commit, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("get_commit", err)
	}
	commit, err := g.client.GetCommit(ctx, record.Token, record.Locator.Owner, record.Locator.Name, sha)
	if err != nil {
		return nil, g.fail("get_commit", err)
	}
	g.record("get_commit")
	return commit, nil
}

// ListPullRequests lists pull requests in the order the remote assigned.
func (g *Gateway) ListPullRequests(ctx context.Context, sessionID, state string, perPage int) ([]github.PullRequest, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("list_pull_requests", err)
	}
	pulls, err := g.client.ListPullRequests(ctx, record.Token, record.Locator.Owner, record.Locator.Name, state, perPage)
	if err != nil {
		return nil, g.fail("list_pull_requests", err)
	}
	g.record("list_pull_requests")
	return pulls, nil
}

// GetPullRequest fetches one pull request.
func (g *Gateway) GetPullRequest(ctx context.Context, sessionID string, number int) (*github.PullRequest, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("get_pull_request", err)
	}
	pull, err := g.client.GetPullRequest(ctx, record.Token, record.Locator.Owner, record.Locator.Name, number)
	if err != nil {
		return nil, g.fail("get_pull_request", err)
	}
	g.record("get_pull_request")
	return pull, nil
}

// GetPullRequestDiff fetches the pull request and its raw diff and combines
// them into one formatted report.
func (g *Gateway) GetPullRequestDiff(ctx context.Context, sessionID string, number int) (string, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return "", g.fail("get_pull_request_diff", err)
	}

	owner, name := record.Locator.Owner, record.Locator.Name
	pull, err := g.client.GetPullRequest(ctx, record.Token, owner, name, number)
	if err != nil {
		return "", g.fail("get_pull_request_diff", err)
	}
	diff, err := g.client.GetPullRequestDiff(ctx, record.Token, owner, name, number)
	if err != nil {
		return "", g.fail("get_pull_request_diff", err)
	}

	g.record("get_pull_request_diff")
	return formatPullRequestReport(pull, diff), nil
}

// CloneRepository materializes the session's repository under destDir (or a
// generated directory) and returns the working tree path. The caller owns
// the directory from then on.
func (g *Gateway) CloneRepository(ctx context.Context, sessionID, destDir string) (string, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return "", g.fail("clone_repository", err)
	}
	if g.metrics != nil {
		g.metrics.RecordCloneStarted()
	}
	path, err := g.cloner.Clone(ctx, record.Locator, record.Token, destDir)
	if err != nil {
		return "", g.fail("clone_repository", err)
	}
	g.record("clone_repository")
	return path, nil
}

// ListIssues lists issues by state.
func (g *Gateway) ListIssues(ctx context.Context, sessionID, state string, perPage int) ([]github.Issue, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("list_issues", err)
	}
	issues, err := g.client.ListIssues(ctx, record.Token, record.Locator.Owner, record.Locator.Name, state, perPage)
	if err != nil {
		return nil, g.fail("list_issues", err)
	}
	g.record("list_issues")
	return issues, nil
}

// GetIssue fetches one issue.
func (g *Gateway) GetIssue(ctx context.Context, sessionID string, number int) (*github.Issue, error) {
	record, err := g.resolve(sessionID)
	if err != nil {
		return nil, g.fail("get_issue", err)
	}
	issue, err := g.client.GetIssue(ctx, record.Token, record.Locator.Owner, record.Locator.Name, number)
	if err != nil {
		return nil, g.fail("get_issue", err)
	}
	g.record("get_issue")
	return issue, nil
}

// DeleteSession removes the session. It reports false when the session was
// already gone.
func (g *Gateway) DeleteSession(sessionID string) bool {
	ok := g.store.Delete(sessionID)
	if g.metrics != nil {
		g.metrics.SetActiveSessions(g.store.Len())
	}
	return ok
}

// ListSessions returns the token-free summaries of every live session.
func (g *Gateway) ListSessions() []sessions.Summary {
	return g.store.ListSummaries()
}

// SweepExpired evicts sessions idle for longer than maxAge.
func (g *Gateway) SweepExpired(maxAge time.Duration) int {
	removed := g.store.SweepExpired(maxAge)
	if g.metrics != nil {
		g.metrics.RecordSweep(removed)
		g.metrics.SetActiveSessions(g.store.Len())
	}
	return removed
}

// resolve maps a session id onto its credential record. The store call
// completes and releases its lock before any network call begins.
func (g *Gateway) resolve(sessionID string) (sessions.Record, error) {
	record, ok := g.store.Get(sessionID)
	if !ok {
		return sessions.Record{}, errors.New(errors.KindSessionNotFound,
			"session does not exist or has expired")
	}
	return record, nil
}

func (g *Gateway) record(operation string) {
	if g.metrics != nil {
		g.metrics.RecordOperation(operation)
		g.metrics.SetActiveSessions(g.store.Len())
	}
}

func (g *Gateway) fail(operation string, err error) error {
	if g.metrics != nil {
		g.metrics.RecordOperationError(operation, string(errors.KindOf(err)))
	}
	return err
}

func formatPullRequestReport(pull *github.PullRequest, diff string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pull Request #%d: %s\n", pull.Number, pull.Title)
	fmt.Fprintf(&b, "State: %s | Author: %s\n", pull.State, pull.User.Login)
	fmt.Fprintf(&b, "Branches: %s <- %s\n", pull.Base.Ref, pull.Head.Ref)
	if pull.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", pull.Body)
	}
	b.WriteString("\n--- Diff ---\n")
	b.WriteString(diff)
	return b.String()
}
