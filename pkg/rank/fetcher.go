package rank

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deprank/pkg/cache"
	"github.com/matzehuels/deprank/pkg/integrations/github"
)

// Status tells how a dependents count was obtained.
type Status string

const (
	// StatusOK means the counter was read from the page.
	StatusOK Status = "ok"
	// StatusFailed means the page could not be fetched.
	StatusFailed Status = "failed"
	// StatusPatternAbsent means the page had no counter.
	StatusPatternAbsent Status = "pattern-absent"
)

// Dependents is the outcome of a dependents lookup. Count is 0 unless
// Status is StatusOK.
type Dependents struct {
	Count  int    `json:"count"`
	Status Status `json:"status"`
}

// Known reports whether Count was actually read from the page.
func (d Dependents) Known() bool { return d.Status == StatusOK }

// PageFetcher returns the HTML of a repository's dependents page.
// Implemented by [github.Client].
type PageFetcher interface {
	DependentsPage(ctx context.Context, id string) (string, error)
}

// ExtractFunc reads a dependents count from page HTML and reports whether
// one was present.
type ExtractFunc func(page string) (int, bool)

// Fetcher looks up dependents counts of repository ids.
type Fetcher struct {
	Pages PageFetcher
	// Extract parses the page. Defaults to [github.ExtractDependents].
	Extract ExtractFunc
	Memo    *cache.Memo
	Logger  *log.Logger
}

// NewFetcher creates a Fetcher reading pages from pages.
func NewFetcher(memo *cache.Memo, pages PageFetcher, logger *log.Logger) *Fetcher {
	if memo == nil {
		memo = cache.NewMemo(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{Pages: pages, Extract: github.ExtractDependents, Memo: memo, Logger: logger}
}

// Fetch returns the dependents of id. Failures are reported through the
// Status of the result, never as an error.
func (f *Fetcher) Fetch(ctx context.Context, id string) Dependents {
	d, _, err := cache.Do(ctx, f.Memo, DependentsScope, id, func(ctx context.Context) (Dependents, error) {
		return f.fetch(ctx, id)
	})
	if err != nil {
		return Dependents{Status: StatusFailed}
	}
	return d
}

// Count returns the dependents count of id, or 0 when it is unknown.
func (f *Fetcher) Count(ctx context.Context, id string) int {
	return f.Fetch(ctx, id).Count
}

func (f *Fetcher) fetch(ctx context.Context, id string) (Dependents, error) {
	page, err := f.Pages.DependentsPage(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return Dependents{}, ctx.Err()
		}
		f.Logger.Debug("dependents page unavailable", "repo", id, "error", err)
		return Dependents{Status: StatusFailed}, nil
	}

	extract := f.Extract
	if extract == nil {
		extract = github.ExtractDependents
	}
	n, ok := extract(page)
	if !ok {
		f.Logger.Debug("no dependents counter on page", "repo", id)
		return Dependents{Status: StatusPatternAbsent}, nil
	}
	return Dependents{Count: n, Status: StatusOK}, nil
}
