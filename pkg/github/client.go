// Package github talks to the GitHub App API surface repovault needs:
// minting app JWTs, exchanging them for installation tokens, enumerating the
// installation's repositories and downloading branch snapshot archives.
package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
)

// archiveMaxRedirects bounds the redirect chase from the API host to the
// codeload host that serves the actual archive bytes.
const archiveMaxRedirects = 5

// Repository describes one repository visible to the installation.
type Repository struct {
	Name          string
	FullName      string
	DefaultBranch string
}

// Client performs installation-scoped GitHub operations.
type Client struct {
	gh         *gh.Client
	downloader *http.Client
}

// NewInstallationClient builds a client authenticated with the given
// installation token.
func NewInstallationClient(ctx context.Context, token *InstallationToken) *Client {
	return &Client{
		gh: newBearerClient(ctx, token.Token),
		// Archive downloads can be large; the overall timeout is generous
		// but still bounded.
		downloader: &http.Client{Timeout: 15 * time.Minute},
	}
}

// ListRepositories returns every repository the installation can access, in
// API listing order.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var repos []Repository
	for {
		page, resp, err := c.gh.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing installation repositories: %w", err)
		}
		for _, r := range page.Repositories {
			repos = append(repos, Repository{
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				DefaultBranch: r.GetDefaultBranch(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return repos, nil
}

// DownloadArchive streams a zipball snapshot of the repository's default
// branch into dst and returns the number of bytes written.
func (c *Client) DownloadArchive(ctx context.Context, repo Repository, dst io.Writer) (int64, error) {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return 0, err
	}

	opts := &gh.RepositoryContentGetOptions{Ref: repo.DefaultBranch}
	archiveURL, _, err := c.gh.Repositories.GetArchiveLink(ctx, owner, name, gh.Zipball, opts, archiveMaxRedirects)
	if err != nil {
		return 0, fmt.Errorf("resolving archive link for %s: %w", repo.FullName, err)
	}

	// The resolved URL is pre-signed; the bearer credential must not be
	// forwarded to the archive host.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("building archive request for %s: %w", repo.FullName, err)
	}

	resp, err := c.downloader.Do(req)
	if err != nil {
		return 0, fmt.Errorf("downloading archive for %s: %w", repo.FullName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("downloading archive for %s: unexpected status %s", repo.FullName, resp.Status)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return written, fmt.Errorf("writing archive for %s: %w", repo.FullName, err)
	}
	return written, nil
}

func splitFullName(fullName string) (owner, name string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed repository full name %q", fullName)
	}
	return parts[0], parts[1], nil
}
