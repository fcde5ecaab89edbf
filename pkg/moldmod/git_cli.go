// SPDX-License-Identifier: MPL-2.0

package moldmod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitCLIFetcher implements Fetcher by running the git binary, which picks up
// the user's git configuration, credential helpers and SSH agent.
type GitCLIFetcher struct {
	// Binary is the git executable; empty means "git" from PATH.
	Binary string
}

// Clone implements Fetcher.
func (f *GitCLIFetcher) Clone(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	var errs []error
	for _, candidate := range candidateURLs(url) {
		err := f.run(ctx, "", "clone", "--quiet", candidate, dest)
		if err == nil {
			return nil
		}
		slog.Debug("git clone attempt failed", "url", candidate, "error", err)
		errs = append(errs, err)
		_ = os.RemoveAll(dest) // best-effort cleanup of the partial clone
	}
	return errors.Join(errs...)
}

// Fetch implements Fetcher.
func (f *GitCLIFetcher) Fetch(ctx context.Context, dest string) error {
	return f.run(ctx, dest, "fetch", "--quiet", "--tags", "--force", "origin",
		"+refs/heads/*:refs/remotes/origin/*")
}

// Checkout implements Fetcher.
func (f *GitCLIFetcher) Checkout(ctx context.Context, dest, ref string) error {
	for _, candidate := range []string{"refs/tags/" + ref, "refs/remotes/origin/" + ref, ref} {
		if f.run(ctx, dest, "rev-parse", "--verify", "--quiet", candidate+"^{commit}") != nil {
			continue
		}
		return f.run(ctx, dest, "checkout", "--quiet", "--force", "--detach", candidate+"^{commit}")
	}
	return fmt.Errorf("ref %q not found", ref)
}

func (f *GitCLIFetcher) run(ctx context.Context, dir string, args ...string) error {
	bin := f.Binary
	if bin == "" {
		bin = "git"
	}
	sub := args[0]
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git %s: %w: %s", sub, err, msg)
		}
		return fmt.Errorf("git %s: %w", sub, err)
	}
	return nil
}
