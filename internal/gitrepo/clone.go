package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ErrCloneFailed means the checkout could not complete (private repo,
// network error, malformed URL, disk failure).
var ErrCloneFailed = errors.New("clone failed")

// runGit is injectable in tests.
var runGit = func(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Checkout is a disposable shallow copy of a repository. It lives in a
// fresh temp directory and never outlives one request.
type Checkout struct {
	Dir string

	once sync.Once
	err  error
}

// Close removes the checkout directory. Safe to call more than once.
func (c *Checkout) Close() error {
	c.once.Do(func() {
		c.err = os.RemoveAll(c.Dir)
	})
	return c.err
}

// Clone performs a shallow, history-free checkout of url into a freshly
// created temp directory. On failure the directory is removed before
// returning; on success the caller owns cleanup via Close.
func Clone(ctx context.Context, url string) (*Checkout, error) {
	dir, err := os.MkdirTemp("", "repolens-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %v", ErrCloneFailed, err)
	}

	if err := runGit(ctx, "clone", "--depth", "1", "--single-branch", url, dir); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %v", ErrCloneFailed, err)
	}

	return &Checkout{Dir: dir}, nil
}
