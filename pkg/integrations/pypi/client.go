package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/deprank/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// PackageInfo holds the metadata of a Python package that points at its
// source repository.
//
// ProjectURLs keeps the order in which PyPI lists the links; resolution
// scans them front to back and the first match wins.
type PackageInfo struct {
	Name        string      // Package name as reported by PyPI
	Version     string      // Latest version
	Summary     string      // Short description (may be empty)
	HomePage    string      // Declared home page (may be empty)
	ProjectURLs ProjectURLs // Labeled project links in source order (may be nil)
}

// CandidateURLs returns the URLs worth inspecting for a repository link:
// the home page first, then every project URL in source order.
// Empty entries are skipped.
func (p *PackageInfo) CandidateURLs() []string {
	urls := make([]string, 0, len(p.ProjectURLs)+1)
	if p.HomePage != "" {
		urls = append(urls, p.HomePage)
	}
	for _, u := range p.ProjectURLs {
		if u.URL != "" {
			urls = append(urls, u.URL)
		}
	}
	return urls
}

// Client provides access to the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client. An empty baseURL selects [DefaultBaseURL];
// a non-positive timeout selects the default timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(timeout, map[string]string{"Accept": "application/json"}),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// FetchPackage retrieves metadata for a Python package from PyPI.
//
// The name is normalized (case-insensitive, underscores→hyphens) before the
// request is made.
//
// Returns:
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - [integrations.ErrDecode] for malformed responses
func (c *Client) FetchPackage(ctx context.Context, pkg string) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	if pkg == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}

	var data apiResponse
	url := fmt.Sprintf("%s/%s/json", c.baseURL, integrations.PathEscape(pkg))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return nil, err
	}

	return &PackageInfo{
		Name:        data.Info.Name,
		Version:     data.Info.Version,
		Summary:     data.Info.Summary,
		HomePage:    strings.TrimSpace(data.Info.HomePage),
		ProjectURLs: data.Info.ProjectURLs,
	}, nil
}

type apiResponse struct {
	Info apiInfo `json:"info"`
}

type apiInfo struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Summary     string      `json:"summary"`
	HomePage    string      `json:"home_page"`
	ProjectURLs ProjectURLs `json:"project_urls"`
}
