// Package credentials holds the syntactic checks a repository URL and an
// access token must pass before either is trusted. Nothing here performs I/O;
// a token that validates is well-formed, not necessarily live.
package credentials

import "fmt"

const (
	// RepositoryHost is the only host accepted by the locator parser.
	RepositoryHost = "github.com"
)

// Locator identifies a remote repository in normalized form: fixed host,
// no scheme variance, no .git suffix.
type Locator struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// String returns the owner/name form used in search qualifiers and logs.
func (l Locator) String() string {
	return fmt.Sprintf("%s/%s", l.Owner, l.Name)
}

// URL returns the canonical https URL of the repository.
func (l Locator) URL() string {
	return fmt.Sprintf("https://%s/%s/%s", l.Host, l.Owner, l.Name)
}

// CloneURL returns the URL handed to the version-control client.
func (l Locator) CloneURL() string {
	return fmt.Sprintf("https://%s/%s/%s.git", l.Host, l.Owner, l.Name)
}
