package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/deprank/pkg/integrations"
)

// Client fetches repository pages from the GitHub web interface.
//
// The dependents counter is not exposed by the REST API, so the client
// requests HTML and leaves parsing to [ExtractDependents].
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub web client. An empty baseURL selects [WebURL];
// a non-positive timeout selects the default timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = WebURL
	}
	return &Client{
		Client:  integrations.NewClient(timeout, map[string]string{"Accept": "text/html"}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// DependentsPage returns the HTML of the dependents page of a repository.
//
// Returns:
//   - [ErrInvalidRepoID] if id is not a canonical owner/repo
//   - [integrations.ErrNotFound] if the repository doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) DependentsPage(ctx context.Context, id string) (string, error) {
	owner, repo, err := SplitRepoID(id)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/%s/network/dependents", c.baseURL,
		integrations.PathEscape(owner), integrations.PathEscape(repo))
	page, err := c.GetText(ctx, url)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: github repo %s", err, id)
		}
		return "", err
	}
	return page, nil
}
