package librariesio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/deprank/pkg/integrations"
)

// DefaultBaseURL is the Libraries.io API root.
const DefaultBaseURL = "https://libraries.io/api"

// platform is the Libraries.io name of the package ecosystem we query.
const platform = "pypi"

// ErrNoAPIKey is returned by FetchProject when the client has no API key.
var ErrNoAPIKey = errors.New("libraries.io api key not configured")

// Project is the subset of a Libraries.io project record used for resolution.
type Project struct {
	Name          string `json:"name"`
	Platform      string `json:"platform"`
	Homepage      string `json:"homepage"`
	RepositoryURL string `json:"repository_url"`
	Stars         int    `json:"stars"`
}

// Client provides access to the Libraries.io API.
type Client struct {
	*integrations.Client
	baseURL string
	apiKey  string
}

// NewClient creates a Libraries.io client. An empty baseURL selects
// [DefaultBaseURL]. An empty apiKey yields a disabled client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(timeout, map[string]string{"Accept": "application/json"}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// Enabled reports whether the client has an API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// FetchProject retrieves the Libraries.io record of a PyPI package.
func (c *Client) FetchProject(ctx context.Context, pkg string) (*Project, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	q := url.Values{"api_key": {c.apiKey}}
	u := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, platform, integrations.PathEscape(pkg), q.Encode())

	var p Project
	if err := c.Get(ctx, u, &p); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: libraries.io project %s", err, pkg)
		}
		return nil, err
	}
	p.RepositoryURL = strings.TrimSpace(p.RepositoryURL)
	return &p, nil
}
