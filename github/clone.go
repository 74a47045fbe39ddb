package github

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/quangtn/github-session-gateway/credentials"
	"github.com/quangtn/github-session-gateway/internal/errors"
)

const (
	// DefaultCloneTimeout bounds the wall clock of one clone invocation.
	DefaultCloneTimeout = 5 * time.Minute

	tokenEnvVar = "GATEWAY_CLONE_TOKEN"

	// credentialHelper feeds the token to git from the child environment so
	// it never appears in a process-listing-visible argument.
	credentialHelper = `!f() { echo "username=x-access-token"; echo "password=${` + tokenEnvVar + `}"; }; f`
)

// CloneRunner invokes the external git client to materialize a working tree.
// It does not track or clean up the directories it creates; the returned path
// is owned by the caller.
type CloneRunner struct {
	gitBinary string
	timeout   time.Duration
	baseDir   string
}

// CloneRunnerOption modifies a CloneRunner at construction time.
type CloneRunnerOption func(*CloneRunner)

// WithGitBinary overrides the git executable (primarily for testing).
func WithGitBinary(binary string) CloneRunnerOption {
	return func(r *CloneRunner) {
		r.gitBinary = binary
	}
}

// WithCloneTimeout overrides the per-clone wall-clock limit.
func WithCloneTimeout(timeout time.Duration) CloneRunnerOption {
	return func(r *CloneRunner) {
		r.timeout = timeout
	}
}

// WithCloneBaseDir sets the directory under which working trees are created
// when the caller does not supply a destination. Empty means a fresh temp
// directory per clone.
func WithCloneBaseDir(dir string) CloneRunnerOption {
	return func(r *CloneRunner) {
		r.baseDir = dir
	}
}

// NewCloneRunner creates a runner with the default git binary and timeout.
func NewCloneRunner(options ...CloneRunnerOption) *CloneRunner {
	r := &CloneRunner{
		gitBinary: "git",
		timeout:   DefaultCloneTimeout,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Clone materializes the repository under destDir (or a generated base
// directory) and returns the path of the working tree. The spawned process is
// killed and reaped when the timeout expires.
func (r *CloneRunner) Clone(ctx context.Context, locator credentials.Locator, token, destDir string) (string, error) {
	if destDir == "" {
		destDir = r.baseDir
	}
	if destDir == "" {
		tmp, err := os.MkdirTemp("", "gateway-clone-")
		if err != nil {
			return "", errors.Wrap(err, errors.KindCloneFailed, "creating clone directory")
		}
		destDir = tmp
	}
	target := filepath.Join(destDir, locator.Name)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.gitBinary,
		"clone",
		"--config", "credential.helper=",
		"--config", "credential.helper="+credentialHelper,
		locator.CloneURL(),
		target,
	)
	cmd.Env = append(os.Environ(),
		tokenEnvVar+"="+token,
		"GIT_TERMINAL_PROMPT=0",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", errors.New(errors.KindCloneTimeout,
			"clone did not finish within %s", r.timeout)
	}
	if err != nil {
		return "", errors.Wrap(err, errors.KindCloneFailed,
			"git clone failed: %s", sanitizeGitOutput(stderr.String(), token))
	}

	return target, nil
}

// sanitizeGitOutput strips the token from diagnostics in case git echoed a
// URL containing it.
func sanitizeGitOutput(output, token string) string {
	if token == "" {
		return strings.TrimSpace(output)
	}
	return strings.TrimSpace(strings.ReplaceAll(output, token, "***"))
}
