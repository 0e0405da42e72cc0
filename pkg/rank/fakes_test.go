package rank

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deprank/pkg/cache"
	"github.com/matzehuels/deprank/pkg/integrations"
	"github.com/matzehuels/deprank/pkg/integrations/librariesio"
	"github.com/matzehuels/deprank/pkg/integrations/pypi"
)

var quietLogger = log.New(io.Discard)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemo(t *testing.T, clock *fakeClock) *cache.Memo {
	t.Helper()
	c, err := cache.NewMemoryCache(cache.WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return cache.NewMemo(c)
}

// calls counts invocations per key.
type calls struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *calls) add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = make(map[string]int)
	}
	c.n[key]++
}

func (c *calls) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[key]
}

func (c *calls) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.n {
		n += v
	}
	return n
}

type fakeRegistry struct {
	calls
	packages map[string]*pypi.PackageInfo
}

func (f *fakeRegistry) FetchPackage(ctx context.Context, pkg string) (*pypi.PackageInfo, error) {
	f.add(pkg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p, ok := f.packages[integrations.NormalizePkgName(pkg)]; ok {
		return p, nil
	}
	return nil, integrations.ErrNotFound
}

type fakeFallback struct {
	calls
	enabled  bool
	projects map[string]string
}

func (f *fakeFallback) Enabled() bool { return f.enabled }

func (f *fakeFallback) FetchProject(ctx context.Context, pkg string) (*librariesio.Project, error) {
	f.add(pkg)
	if u, ok := f.projects[pkg]; ok {
		return &librariesio.Project{Name: pkg, RepositoryURL: u}, nil
	}
	return nil, integrations.ErrNotFound
}

type fakePages struct {
	calls
	pages map[string]string
	err   error
}

func (f *fakePages) DependentsPage(ctx context.Context, id string) (string, error) {
	f.add(id)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	if p, ok := f.pages[id]; ok {
		return p, nil
	}
	return "", integrations.ErrNotFound
}

func sourcePkg(repoURL string) *pypi.PackageInfo {
	return &pypi.PackageInfo{ProjectURLs: pypi.ProjectURLs{{Label: "Source", URL: repoURL}}}
}

func counter(n string) string {
	return `<html><body><a href="#">` + n + ` Repositories</a></body></html>`
}
