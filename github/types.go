package github

import "time"

// Repository is the remote repository metadata record.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Stars         int    `json:"stargazers_count"`
	Forks         int    `json:"forks_count"`
	OpenIssues    int    `json:"open_issues_count"`
	Language      string `json:"language"`
	Owner         Actor  `json:"owner"`
}

// Actor is a user or organization reference embedded in other records.
type Actor struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

// ContentEntry describes one file or directory returned by the contents API.
// For file lookups Content carries the base64 payload.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	Type        string `json:"type"` // "file", "dir", "symlink", "submodule"
	Content     string `json:"content,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
	HTMLURL     string `json:"html_url"`
	DownloadURL string `json:"download_url"`
}

// SearchCodeResult is the result set of a code search.
type SearchCodeResult struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []SearchCodeItem `json:"items"`
}

// SearchCodeItem is one code search hit.
type SearchCodeItem struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	SHA        string     `json:"sha"`
	HTMLURL    string     `json:"html_url"`
	Repository Repository `json:"repository"`
}

// PullRequest is a pull request record. Remote-assigned ordering is
// preserved wherever lists of these are returned.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Body      string     `json:"body"`
	User      Actor      `json:"user"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at"`
	Head      GitRef     `json:"head"`
	Base      GitRef     `json:"base"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Commits   int        `json:"commits"`
}

// GitRef names one side of a pull request.
type GitRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// Branch is a repository branch head.
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	Commit    struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

// Commit is a commit record from the commits API.
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string       `json:"message"`
		Author  CommitAuthor `json:"author"`
	} `json:"commit"`
	Author Actor        `json:"author"`
	Files  []CommitFile `json:"files,omitempty"`
}

// CommitAuthor is the authorship block inside a commit.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// CommitFile is one changed file inside a single-commit response.
type CommitFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Issue is an issue record.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Body      string    `json:"body"`
	User      Actor     `json:"user"`
	HTMLURL   string    `json:"html_url"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
