package rank

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/deprank/pkg/integrations/pypi"
	"github.com/matzehuels/deprank/pkg/observability"
)

type testEnv struct {
	clock    *fakeClock
	registry *fakeRegistry
	fallback *fakeFallback
	pages    *fakePages
	agg      *Aggregator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock: newFakeClock(),
		registry: &fakeRegistry{packages: map[string]*pypi.PackageInfo{
			"numpy":    sourcePkg("https://github.com/numpy/numpy"),
			"pandas":   sourcePkg("https://github.com/pandas-dev/pandas"),
			"requests": sourcePkg("https://github.com/psf/requests"),
			"flaky":    sourcePkg("https://github.com/flaky/flaky"),
			"blank":    sourcePkg("https://github.com/blank/blank"),
		}},
		fallback: &fakeFallback{enabled: true, projects: map[string]string{
			"libonly": "https://github.com/lib/only",
		}},
		pages: &fakePages{pages: map[string]string{
			"numpy/numpy":       counter("12"),
			"pandas-dev/pandas": counter("5"),
			"psf/requests":      counter("0"),
			"lib/only":          counter("1,234"),
			"blank/blank":       `<html><body>no counter</body></html>`,
		}},
	}
	memo := newTestMemo(t, env.clock)
	env.agg = NewAggregator(memo,
		NewResolver(memo, env.registry, env.fallback, quietLogger),
		NewFetcher(memo, env.pages, quietLogger),
		quietLogger)
	return env
}

func names(rows Table) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestAggregate_Ranking(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.agg.Aggregate(context.Background(), "pandas, requests\nnot-a-package numpy", Options{})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"numpy", "pandas", "requests", "not-a-package"}
	if got := names(res.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	numpy := res.Rows[0]
	if numpy.Dependents == nil || *numpy.Dependents != 12 {
		t.Errorf("numpy dependents = %v", numpy.Dependents)
	}
	if numpy.RepoURL == nil || *numpy.RepoURL != "https://github.com/numpy/numpy" {
		t.Errorf("numpy repo url = %v", numpy.RepoURL)
	}
	if numpy.DependentsURL == nil || *numpy.DependentsURL != "https://github.com/numpy/numpy/network/dependents" {
		t.Errorf("numpy dependents url = %v", numpy.DependentsURL)
	}

	unknown := res.Rows[3]
	if unknown.Dependents != nil || unknown.RepoURL != nil || unknown.DependentsURL != nil {
		t.Errorf("unresolved row should be empty: %+v", unknown)
	}
	if res.Cached {
		t.Error("first run should not be cached")
	}
}

func TestAggregate_Dedup(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.agg.Aggregate(context.Background(), "numpy, https://github.com/numpy/numpy", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %v", names(res.Rows))
	}
	if res.Rows[0].Name != "numpy" {
		t.Errorf("kept %q, want the first token", res.Rows[0].Name)
	}
	if n := env.pages.get("numpy/numpy"); n != 1 {
		t.Errorf("page fetched %d times", n)
	}
}

func TestAggregate_UnresolvedNotDeduped(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.agg.Aggregate(context.Background(), "nope nope", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("expected a row per unresolved token, got %v", names(res.Rows))
	}
}

func TestAggregate_DirectAndFallback(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.agg.Aggregate(context.Background(), "libonly pandas-dev/pandas", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"libonly", "pandas-dev/pandas"}
	if got := names(res.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if *res.Rows[0].Dependents != 1234 {
		t.Errorf("libonly dependents = %d", *res.Rows[0].Dependents)
	}
	if env.registry.get("pandas-dev/pandas") != 0 {
		t.Error("direct repo ids must not be looked up in the registry")
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := "numpy pandas requests nope"

	cold, err := env.agg.Aggregate(ctx, input, Options{})
	if err != nil {
		t.Fatal(err)
	}
	warm, err := env.agg.Aggregate(ctx, input, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if !warm.Cached {
		t.Error("second run should be served from cache")
	}
	if !reflect.DeepEqual(cold.Rows, warm.Rows) {
		t.Errorf("cached rows differ:\ncold: %+v\nwarm: %+v", cold.Rows, warm.Rows)
	}
	if n := env.pages.get("numpy/numpy"); n != 1 {
		t.Errorf("page fetched %d times, want 1", n)
	}

	// Different whitespace is a different literal input.
	other, err := env.agg.Aggregate(ctx, input+"\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if other.Cached {
		t.Error("different input text should miss the aggregate cache")
	}
	if !reflect.DeepEqual(cold.Rows, other.Rows) {
		t.Error("equivalent input should produce the same table")
	}
}

func TestAggregate_Expiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.agg.Aggregate(ctx, "numpy", Options{}); err != nil {
		t.Fatal(err)
	}

	env.clock.Advance(25 * time.Hour)
	res, err := env.agg.Aggregate(ctx, "numpy", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Error("aggregate entry should expire after 24 hours")
	}
	// The dependents count is still within its 48 hour window.
	if n := env.pages.get("numpy/numpy"); n != 1 {
		t.Errorf("page fetched %d times, want 1", n)
	}
}

func TestAggregate_Strict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := "numpy flaky blank requests"

	loose, err := env.agg.Aggregate(ctx, input, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range loose.Rows {
		if r.Dependents == nil {
			t.Errorf("%s: resolved rows always carry a count in default mode", r.Name)
		}
	}

	strict, err := env.agg.Aggregate(ctx, input, Options{Strict: true})
	if err != nil {
		t.Fatal(err)
	}
	if strict.Cached {
		t.Error("strict runs use their own cache scope")
	}

	want := []string{"numpy", "requests", "flaky", "blank"}
	if got := names(strict.Rows); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for _, r := range strict.Rows[2:] {
		if r.Dependents != nil {
			t.Errorf("%s: expected unknown count in strict mode", r.Name)
		}
		if r.RepoURL == nil {
			t.Errorf("%s: resolved rows keep their links", r.Name)
		}
	}
}

func TestAggregate_Progress(t *testing.T) {
	env := newTestEnv(t)

	var (
		mu    sync.Mutex
		calls [][2]int
	)
	opts := Options{Progress: func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	}}

	input := "numpy pandas nope https://github.com/numpy/numpy requests"
	if _, err := env.agg.Aggregate(context.Background(), input, opts); err != nil {
		t.Fatal(err)
	}

	if len(calls) != 5 {
		t.Fatalf("expected 5 progress calls, got %v", calls)
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 5 {
			t.Errorf("call %d = %v, want [%d 5]", i, c, i+1)
		}
	}

	calls = nil
	if _, err := env.agg.Aggregate(context.Background(), input, opts); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 0 {
		t.Errorf("cached run reported progress: %v", calls)
	}
}

func TestAggregate_Empty(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.agg.Aggregate(context.Background(), " ,\n ", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows == nil || len(res.Rows) != 0 {
		t.Errorf("expected empty non-nil table, got %#v", res.Rows)
	}
}

func TestAggregate_Cancelled(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.agg.Aggregate(ctx, "numpy", Options{}); err == nil {
		t.Fatal("expected cancellation error")
	}

	res, err := env.agg.Aggregate(context.Background(), "numpy", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached {
		t.Error("cancelled run must not be cached")
	}
	if len(res.Rows) != 1 || res.Rows[0].Dependents == nil || *res.Rows[0].Dependents != 12 {
		t.Errorf("unexpected rows after cancellation: %+v", res.Rows)
	}
}

type recordingRankHooks struct {
	observability.NoopRankHooks
	mu       sync.Mutex
	started  int
	resolved map[string]string
	cached   []bool
}

func (h *recordingRankHooks) OnAggregateStart(ctx context.Context, tokens int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = tokens
}

func (h *recordingRankHooks) OnResolve(ctx context.Context, token, repo, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved[token] = source
}

func (h *recordingRankHooks) OnAggregateComplete(ctx context.Context, rows int, d time.Duration, cached bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cached = append(h.cached, cached)
}

func TestAggregate_Hooks(t *testing.T) {
	hooks := &recordingRankHooks{resolved: make(map[string]string)}
	observability.SetRankHooks(hooks)
	t.Cleanup(observability.Reset)

	env := newTestEnv(t)
	ctx := context.Background()
	for range 2 {
		if _, err := env.agg.Aggregate(ctx, "numpy libonly numpy/numpy nope", Options{}); err != nil {
			t.Fatal(err)
		}
	}

	if hooks.started != 4 {
		t.Errorf("OnAggregateStart tokens = %d, want 4", hooks.started)
	}
	want := map[string]string{
		"numpy":       string(SourceRegistry),
		"libonly":     string(SourceFallback),
		"numpy/numpy": string(SourceDirect),
		"nope":        string(SourceNone),
	}
	if !reflect.DeepEqual(hooks.resolved, want) {
		t.Errorf("OnResolve sources = %v, want %v", hooks.resolved, want)
	}
	if !reflect.DeepEqual(hooks.cached, []bool{false, true}) {
		t.Errorf("OnAggregateComplete cached = %v", hooks.cached)
	}
}
