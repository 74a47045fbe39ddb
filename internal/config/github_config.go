package config

import (
	"strconv"
	"time"
)

type GitHubConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
	GetRequestsPerSecond() float64
	GetRequestBurst() int
	GetCloneTimeout() time.Duration
	GetCloneBaseDir() string
	GetGitBinary() string
}

type GitHub struct{}

var _ GitHubConfig = GitHub{}

func (GitHub) GetAPIBaseURL() string {
	return GetEnv("GITHUB_API_BASE_URL", "https://api.github.com")
}

func (GitHub) GetHTTPTimeout() time.Duration {
	return GetEnvDuration("GITHUB_HTTP_TIMEOUT", 30*time.Second)
}

// GetRequestsPerSecond caps calls to the remote API. Authenticated users get
// 5000 requests per hour, so the default stays well under that.
func (GitHub) GetRequestsPerSecond() float64 {
	if value := GetEnv("GITHUB_REQUESTS_PER_SECOND", ""); value != "" {
		if rps, err := strconv.ParseFloat(value, 64); err == nil && rps > 0 {
			return rps
		}
	}
	return 1.0
}

func (GitHub) GetRequestBurst() int {
	if value := GetEnv("GITHUB_REQUEST_BURST", ""); value != "" {
		if burst, err := strconv.Atoi(value); err == nil && burst > 0 {
			return burst
		}
	}
	return 5
}

func (GitHub) GetCloneTimeout() time.Duration {
	return GetEnvDuration("CLONE_TIMEOUT", 5*time.Minute)
}

// GetCloneBaseDir returns the base directory for cloned working trees.
// Empty means a fresh temp directory per clone.
func (GitHub) GetCloneBaseDir() string {
	return GetEnv("CLONE_BASE_DIR", "")
}

func (GitHub) GetGitBinary() string {
	return GetEnv("GIT_BINARY", "git")
}
