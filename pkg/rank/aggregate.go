package rank

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/deprank/pkg/cache"
	"github.com/matzehuels/deprank/pkg/integrations/github"
	"github.com/matzehuels/deprank/pkg/observability"
)

// DefaultWorkers is the number of concurrent remote lookups.
const DefaultWorkers = 4

// Options configures a single aggregation run.
type Options struct {
	// Strict reports failed and unparseable dependents pages as unknown
	// instead of 0.
	Strict bool

	// Progress, if set, is called with the number of processed tokens after
	// each token finishes. done never decreases and ends at total.
	// It is not called when the result comes from the cache.
	Progress func(done, total int)
}

// Result is the outcome of [Aggregator.Aggregate].
type Result struct {
	Rows   Table `json:"rows"`
	Cached bool  `json:"cached"`
}

// Aggregator ranks identifier lists. It is safe for concurrent use.
type Aggregator struct {
	Resolver *Resolver
	Fetcher  *Fetcher
	Memo     *cache.Memo
	Logger   *log.Logger
	// Workers bounds concurrent lookups. Defaults to DefaultWorkers.
	Workers int
}

// NewAggregator creates an Aggregator sharing memo across all stages.
func NewAggregator(memo *cache.Memo, resolver *Resolver, fetcher *Fetcher, logger *log.Logger) *Aggregator {
	if memo == nil {
		memo = cache.NewMemo(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{
		Resolver: resolver,
		Fetcher:  fetcher,
		Memo:     memo,
		Logger:   logger,
		Workers:  DefaultWorkers,
	}
}

// Aggregate ranks the identifiers in input.
//
// The result is cached for 24 hours keyed by the literal input text, so
// identical requests within that window return the same table without
// touching the network.
func (a *Aggregator) Aggregate(ctx context.Context, input string, opts Options) (*Result, error) {
	start := time.Now()
	hooks := observability.Rank()

	scope := AggregateScope
	if opts.Strict {
		scope = StrictAggregateScope
	}

	rows, cached, err := cache.Do(ctx, a.Memo, scope, input, func(ctx context.Context) (Table, error) {
		return a.build(ctx, input, opts)
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = Table{}
	}

	hooks.OnAggregateComplete(ctx, len(rows), time.Since(start), cached)
	a.Logger.Debug("aggregated", "rows", len(rows), "cached", cached, "duration", time.Since(start))
	return &Result{Rows: rows, Cached: cached}, nil
}

// resolved is the per-token outcome of the resolution phase.
type resolved struct {
	token  string
	id     string
	source Source
}

func (a *Aggregator) build(ctx context.Context, input string, opts Options) (Table, error) {
	tokens := Tokenize(input)
	observability.Rank().OnAggregateStart(ctx, len(tokens))
	a.Logger.Info("aggregating", "tokens", len(tokens))

	progress := newProgress(len(tokens), opts.Progress)

	resolutions, err := a.resolveAll(ctx, tokens)
	if err != nil {
		return nil, err
	}

	// Keep the first token per repository id; later duplicates are dropped.
	rows := make(Table, 0, len(tokens))
	ids := make(map[int]string)
	seen := make(map[string]bool)
	for _, r := range resolutions {
		if r.id == "" {
			rows = append(rows, Row{Name: r.token})
			progress.step()
			continue
		}
		if seen[r.id] {
			a.Logger.Debug("dropping duplicate", "token", r.token, "repo", r.id)
			progress.step()
			continue
		}
		seen[r.id] = true
		ids[len(rows)] = r.id
		rows = append(rows, Row{Name: r.token})
	}

	counts, err := a.fetchAll(ctx, ids, progress)
	if err != nil {
		return nil, err
	}

	for i, id := range ids {
		repoURL, depURL := github.RepoURL(id), github.DependentsURL(id)
		rows[i].RepoURL = &repoURL
		rows[i].DependentsURL = &depURL

		d := counts[i]
		if opts.Strict && !d.Known() {
			continue
		}
		n := d.Count
		rows[i].Dependents = &n
	}

	rows.Sort()
	return rows, nil
}

func (a *Aggregator) resolveAll(ctx context.Context, tokens []string) ([]resolved, error) {
	out := make([]resolved, len(tokens))
	hooks := observability.Rank()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, tok := range tokens {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := resolved{token: tok}
			if id := github.ParseRepoID(tok); id != "" {
				r.id, r.source = id, SourceDirect
			} else if a.Resolver != nil {
				r.id, r.source = a.Resolver.Resolve(gctx, tok)
			}
			hooks.OnResolve(gctx, tok, r.id, string(r.source))
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (a *Aggregator) fetchAll(ctx context.Context, ids map[int]string, progress *progress) (map[int]Dependents, error) {
	var mu sync.Mutex
	out := make(map[int]Dependents, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d := Dependents{Status: StatusFailed}
			if a.Fetcher != nil {
				d = a.Fetcher.Fetch(gctx, id)
			}
			mu.Lock()
			out[i] = d
			mu.Unlock()
			progress.step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (a *Aggregator) workers() int {
	if a.Workers <= 0 {
		return DefaultWorkers
	}
	return a.Workers
}

// progress serializes progress callbacks so done is reported in order.
type progress struct {
	mu    sync.Mutex
	done  int
	total int
	fn    func(done, total int)
}

func newProgress(total int, fn func(done, total int)) *progress {
	return &progress{total: total, fn: fn}
}

func (p *progress) step() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.fn(p.done, p.total)
}
