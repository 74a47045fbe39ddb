// Package github talks to the GitHub REST API and to the git executable on
// behalf of a resolved session token. It owns no session state; the token
// arrives as an argument on every call.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/quangtn/github-session-gateway/internal/errors"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.github.com"

	userAgent  = "GitHub-Agent/1.0"
	acceptJSON = "application/vnd.github.v3+json"
	// acceptDiff asks the pulls endpoint for the diff-formatted
	// representation of the resource instead of JSON.
	acceptDiff = "application/vnd.github.v3.diff"

	maxErrorBodyBytes = 4 << 10
)

// Observer receives remote-call telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	RecordRemoteStatus(statusCode int)
	RecordRemoteLatency(d time.Duration)
}

// Client is a stateless GitHub REST API client. The zero number of stored
// credentials is deliberate: callers pass the token per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
}

// ClientOption modifies a Client at construction time.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outbound requests per second with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver attaches a telemetry observer.
func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a client against baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// GetRepository fetches the repository metadata record.
func (c *Client) GetRepository(ctx context.Context, token, owner, repo string) (*Repository, error) {
	var repository Repository
	endpoint := fmt.Sprintf("repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, token, endpoint, nil, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// GetContents lists a directory or fetches a single file's metadata. The
// contents API returns an object for files and an array for directories; a
// single file is normalized into a one-element slice.
func (c *Client) GetContents(ctx context.Context, token, owner, repo, path, ref string) ([]ContentEntry, error) {
	raw, err := c.getRaw(ctx, token, contentsEndpoint(owner, repo, path), refQuery(ref), acceptJSON)
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 && raw[0] == '[' {
		var entries []ContentEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errors.Wrapf(err, "decoding contents listing")
		}
		return entries, nil
	}

	var entry ContentEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, errors.Wrapf(err, "decoding content entry")
	}
	return []ContentEntry{entry}, nil
}

// GetFileContent fetches a single file entry including its encoded payload.
func (c *Client) GetFileContent(ctx context.Context, token, owner, repo, path, ref string) (*ContentEntry, error) {
	var entry ContentEntry
	if err := c.getJSON(ctx, token, contentsEndpoint(owner, repo, path), refQuery(ref), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SearchCode runs a code search with the given fully-assembled query string.
func (c *Client) SearchCode(ctx context.Context, token, query string) (*SearchCodeResult, error) {
	var result SearchCodeResult
	q := url.Values{"q": []string{query}}
	if err := c.getJSON(ctx, token, "search/code", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListBranches lists the repository's branches.
func (c *Client) ListBranches(ctx context.Context, token, owner, repo string) ([]Branch, error) {
	var branches []Branch
	endpoint := fmt.Sprintf("repos/%s/%s/branches", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, token, endpoint, nil, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// ListCommits lists commits, optionally filtered by starting sha and path.
func (c *Client) ListCommits(ctx context.Context, token, owner, repo, sha, path string, perPage int) ([]Commit, error) {
	query := url.Values{}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	if sha != "" {
		query.Set("sha", sha)
	}
	if path != "" {
		query.Set("path", path)
	}

	var commits []Commit
	endpoint := fmt.Sprintf("repos/%s/%s/commits", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, token, endpoint, query, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// GetCommit fetches one commit including its changed files.
func (c *Client) GetCommit(ctx context.Context, token, owner, repo, sha string) (*Commit, error) {
	var commit Commit
	endpoint := fmt.Sprintf("repos/%s/%s/commits/%s", url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(sha))
	if err := c.getJSON(ctx, token, endpoint, nil, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// ListPullRequests lists pull requests in remote-assigned order.
func (c *Client) ListPullRequests(ctx context.Context, token, owner, repo, state string, perPage int) ([]PullRequest, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var pulls []PullRequest
	endpoint := fmt.Sprintf("repos/%s/%s/pulls", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, token, endpoint, query, &pulls); err != nil {
		return nil, err
	}
	return pulls, nil
}

// GetPullRequest fetches one pull request.
func (c *Client) GetPullRequest(ctx context.Context, token, owner, repo string, number int) (*PullRequest, error) {
	var pull PullRequest
	if err := c.getJSON(ctx, token, pullEndpoint(owner, repo, number), nil, &pull); err != nil {
		return nil, err
	}
	return &pull, nil
}

// GetPullRequestDiff fetches the raw diff text of a pull request by asking
// the same endpoint for its diff-formatted representation.
func (c *Client) GetPullRequestDiff(ctx context.Context, token, owner, repo string, number int) (string, error) {
	raw, err := c.getRaw(ctx, token, pullEndpoint(owner, repo, number), nil, acceptDiff)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ListIssues lists issues by state.
func (c *Client) ListIssues(ctx context.Context, token, owner, repo, state string, perPage int) ([]Issue, error) {
	query := url.Values{}
	if state != "" {
		query.Set("state", state)
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}

	var issues []Issue
	endpoint := fmt.Sprintf("repos/%s/%s/issues", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.getJSON(ctx, token, endpoint, query, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetIssue fetches one issue.
func (c *Client) GetIssue(ctx context.Context, token, owner, repo string, number int) (*Issue, error) {
	var issue Issue
	endpoint := fmt.Sprintf("repos/%s/%s/issues/%d", url.PathEscape(owner), url.PathEscape(repo), number)
	if err := c.getJSON(ctx, token, endpoint, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, token, endpoint string, query url.Values, out any) error {
	raw, err := c.getRaw(ctx, token, endpoint, query, acceptJSON)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decoding %s response", endpoint)
	}
	return nil
}

// getRaw performs an authenticated GET and returns the response body after
// mapping the remote's failure statuses onto the gateway error taxonomy.
func (c *Client) getRaw(ctx context.Context, token, endpoint string, query url.Values, accept string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, errors.KindRemoteAPIError, "waiting for rate limiter")
		}
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindRemoteAPIError, "building request for %s", endpoint)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observer != nil {
		c.observer.RecordRemoteLatency(time.Since(start))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.KindRemoteAPIError, "calling %s", endpoint)
	}
	defer resp.Body.Close()

	if c.observer != nil {
		c.observer.RecordRemoteStatus(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.New(errors.KindAuthFailed, "token invalid or expired")
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.KindNotFound, "repository or resource not found")
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, errors.Remote(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindRemoteAPIError, "reading %s response", endpoint)
	}
	return body, nil
}

func contentsEndpoint(owner, repo, path string) string {
	endpoint := fmt.Sprintf("repos/%s/%s/contents", url.PathEscape(owner), url.PathEscape(repo))
	if path != "" {
		endpoint += "/" + path
	}
	return endpoint
}

func pullEndpoint(owner, repo string, number int) string {
	return fmt.Sprintf("repos/%s/%s/pulls/%d", url.PathEscape(owner), url.PathEscape(repo), number)
}

func refQuery(ref string) url.Values {
	if ref == "" {
		return nil
	}
	return url.Values{"ref": []string{ref}}
}
