package credentials

import (
	"net/url"
	"strings"

	"github.com/quangtn/github-session-gateway/internal/errors"
)

// TokenKind distinguishes the two accepted personal access token shapes.
type TokenKind string

const (
	TokenKindClassic     TokenKind = "classic"
	TokenKindFineGrained TokenKind = "fine-grained"

	classicPrefix     = "ghp_"
	fineGrainedPrefix = "github_pat_"
	classicLength     = 40
)

// ParseRepositoryURL validates a repository URL and returns its normalized
// locator. The scheme is optional; host variants other than the repository
// host (or its www. form) are rejected.
func ParseRepositoryURL(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, errors.New(errors.KindInvalidLocator, "repository URL is required")
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Locator{}, errors.Wrap(err, errors.KindInvalidLocator, "repository URL is not parsable")
	}

	host := strings.ToLower(parsed.Hostname())
	if host != RepositoryHost && host != "www."+RepositoryHost {
		return Locator{}, errors.New(errors.KindInvalidLocator, "host %q is not %s", host, RepositoryHost)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Locator{}, errors.New(errors.KindInvalidLocator, "URL is missing the owner or repository name segment")
	}

	name := strings.TrimSuffix(parts[1], ".git")
	if name == "" {
		return Locator{}, errors.New(errors.KindInvalidLocator, "repository name is empty after stripping .git")
	}

	return Locator{Host: RepositoryHost, Owner: parts[0], Name: name}, nil
}

// ValidateTokenFormat checks that a personal access token has one of the two
// recognized shapes. It never contacts the network; liveness is only
// established by the first successful call made under the token.
func ValidateTokenFormat(raw string) (TokenKind, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", errors.New(errors.KindInvalidTokenFormat, "token is required")
	}

	switch {
	case strings.HasPrefix(token, classicPrefix):
		if len(token) != classicLength {
			return "", errors.New(errors.KindInvalidTokenFormat,
				"classic token must be exactly %d characters", classicLength)
		}
		return TokenKindClassic, nil
	case strings.HasPrefix(token, fineGrainedPrefix):
		if len(token) == len(fineGrainedPrefix) {
			return "", errors.New(errors.KindInvalidTokenFormat, "fine-grained token is missing its body")
		}
		return TokenKindFineGrained, nil
	default:
		return "", errors.New(errors.KindInvalidTokenFormat,
			"token must start with %q or %q", classicPrefix, fineGrainedPrefix)
	}
}
