package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deprank/pkg/rank"
)

type fakeAggregator struct {
	mu     sync.Mutex
	input  string
	opts   rank.Options
	calls  int
	err    error
	result *rank.Result
}

func (f *fakeAggregator) Aggregate(ctx context.Context, input string, opts rank.Options) (*rank.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.input, f.opts = input, opts
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	n, repo, dep := 12, "https://github.com/numpy/numpy", "https://github.com/numpy/numpy/network/dependents"
	return &rank.Result{Rows: rank.Table{
		{Name: "numpy", Dependents: &n, RepoURL: &repo, DependentsURL: &dep},
		{Name: "nope"},
	}}, nil
}

type rowsBody struct {
	Rows []map[string]any `json:"rows"`
}

func newTestServer(agg Aggregator, opts ...Option) *httptest.Server {
	s := New(agg, log.New(io.Discard), opts...)
	return httptest.NewServer(s.Handler())
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&fakeAggregator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decode[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRankQuery(t *testing.T) {
	agg := &fakeAggregator{}
	ts := newTestServer(agg)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/rank?q=numpy,nope")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := decode[rowsBody](t, resp)

	if len(body.Rows) != 2 {
		t.Fatalf("rows = %v", body.Rows)
	}
	if body.Rows[0]["dependents"] != float64(12) {
		t.Errorf("dependents = %v", body.Rows[0]["dependents"])
	}
	if v, ok := body.Rows[1]["dependents"]; !ok || v != nil {
		t.Errorf("unknown dependents should be null, got %v (present %v)", v, ok)
	}
	if agg.input != "numpy,nope" {
		t.Errorf("input = %q", agg.input)
	}
	if agg.opts.Strict {
		t.Error("strict should default to false")
	}
}

func TestRankQuery_RequestIDPropagated(t *testing.T) {
	ts := newTestServer(&fakeAggregator{})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/rank?q=numpy", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestRankBody(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		body        string
		serverOpts  []Option
		wantInput   string
		wantStrict  bool
	}{
		{"text", "/api/v1/rank", "text/plain", "numpy\npandas", nil, "numpy\npandas", false},
		{"no content type", "/api/v1/rank", "", "numpy", nil, "numpy", false},
		{"json", "/api/v1/rank", "application/json", `{"input":"numpy pandas"}`, nil, "numpy pandas", false},
		{"json strict", "/api/v1/rank", "application/json; charset=utf-8", `{"input":"numpy","strict":true}`, nil, "numpy", true},
		{"query overrides body", "/api/v1/rank?strict=false", "application/json", `{"input":"numpy","strict":true}`, nil, "numpy", false},
		{"server default", "/api/v1/rank", "text/plain", "numpy", []Option{WithStrict(true)}, "numpy", true},
		{"body overrides default", "/api/v1/rank", "application/json", `{"input":"numpy","strict":false}`, []Option{WithStrict(true)}, "numpy", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{}
			ts := newTestServer(agg, tt.serverOpts...)
			defer ts.Close()

			req, _ := http.NewRequest(http.MethodPost, ts.URL+tt.url, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if agg.input != tt.wantInput {
				t.Errorf("input = %q, want %q", agg.input, tt.wantInput)
			}
			if agg.opts.Strict != tt.wantStrict {
				t.Errorf("strict = %v, want %v", agg.opts.Strict, tt.wantStrict)
			}
		})
	}
}

func TestRank_Errors(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		url         string
		contentType string
		body        string
		aggErr      error
		wantStatus  int
		wantCode    string
	}{
		{"empty query", http.MethodGet, "/api/v1/rank", "", "", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"blank body", http.MethodPost, "/api/v1/rank", "text/plain", " ,\n", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad strict", http.MethodGet, "/api/v1/rank?q=numpy&strict=maybe", "", "", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed json", http.MethodPost, "/api/v1/rank", "application/json", "{", nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", http.MethodPost, "/api/v1/rank", "text/plain", strings.Repeat("a", maxBodySize+1), nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"aggregate failure", http.MethodGet, "/api/v1/rank?q=numpy", "", "", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown route", http.MethodGet, "/api/v2/rank", "", "", nil, http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodDelete, "/api/v1/rank", "", "", nil, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &fakeAggregator{err: tt.aggErr}
			ts := newTestServer(agg)
			defer ts.Close()

			req, _ := http.NewRequest(tt.method, ts.URL+tt.url, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decode[errorBody](t, resp)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message == "" {
				t.Error("missing error message")
			}
			if tt.aggErr != nil && strings.Contains(body.Error.Message, "boom") {
				t.Error("internal errors must not leak details")
			}
		})
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(&fakeAggregator{}, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
