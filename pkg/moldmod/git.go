// SPDX-License-Identifier: MPL-2.0

package moldmod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GoGitFetcher implements Fetcher in-process with go-git.
type GoGitFetcher struct {
	httpAuth transport.AuthMethod
	sshAuth  transport.AuthMethod
}

// NewGoGitFetcher creates a fetcher that authenticates with the first SSH
// key found in ~/.ssh or a token from GITHUB_TOKEN, GITLAB_TOKEN or
// GIT_TOKEN. Without credentials only public repositories work.
func NewGoGitFetcher() *GoGitFetcher {
	return &GoGitFetcher{
		httpAuth: tryHTTPAuth(),
		sshAuth:  trySSHAuth(),
	}
}

// Clone implements Fetcher. URLs without a scheme are tried with https://
// first and then as written, so both "github.com/org/repo" and
// "git@github.com:org/repo" work.
func (f *GoGitFetcher) Clone(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	var errs []error
	for _, candidate := range candidateURLs(url) {
		_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
			URL:  candidate,
			Auth: f.authFor(candidate),
		})
		if err == nil {
			return nil
		}
		slog.Debug("clone attempt failed", "url", candidate, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
		_ = os.RemoveAll(dest) // best-effort cleanup of the partial clone
	}
	return errors.Join(errs...)
}

// Fetch implements Fetcher.
func (f *GoGitFetcher) Fetch(ctx context.Context, dest string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	var url string
	if remote, err := repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		url = remote.Config().URLs[0]
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs: []config.RefSpec{
			"+refs/heads/*:refs/remotes/origin/*",
			"+refs/tags/*:refs/tags/*",
		},
		Auth:  f.authFor(url),
		Tags:  git.AllTags,
		Force: true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// Checkout implements Fetcher.
func (f *GoGitFetcher) Checkout(_ context.Context, dest, ref string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	hash, err := resolveRef(repo, ref)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", ref, err)
	}
	return nil
}

// resolveRef finds the commit for ref, trying a tag, then a remote branch,
// then any revision go-git understands (such as a commit hash).
func resolveRef(repo *git.Repository, ref string) (plumbing.Hash, error) {
	if tag, err := repo.Reference(plumbing.NewTagReferenceName(ref), true); err == nil {
		// Annotated tags point at a tag object, not a commit.
		if obj, err := repo.TagObject(tag.Hash()); err == nil {
			return obj.Target, nil
		}
		return tag.Hash(), nil
	}

	if branch, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", ref), true); err == nil {
		return branch.Hash(), nil
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("ref %q not found: %w", ref, err)
	}
	return *hash, nil
}

// candidateURLs returns the URLs to try for url, in order.
func candidateURLs(url string) []string {
	if strings.Contains(url, "://") || strings.HasPrefix(url, "/") || strings.HasPrefix(url, ".") {
		return []string{url}
	}
	return []string{"https://" + url, url}
}

// authFor picks the credentials matching the transport of url. Local
// repositories get none.
func (f *GoGitFetcher) authFor(url string) transport.AuthMethod {
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return f.httpAuth
	case strings.HasPrefix(url, "ssh://"), strings.Contains(url, "@") && !strings.Contains(url, "://"):
		return f.sshAuth
	default:
		return nil
	}
}

func trySSHAuth() transport.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tryHTTPAuth() transport.AuthMethod {
	tokens := []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tok := range tokens {
		if v := os.Getenv(tok.env); v != "" {
			return &http.BasicAuth{Username: tok.user, Password: v}
		}
	}
	return nil
}
