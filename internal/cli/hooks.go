package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deprank/pkg/observability"
)

// installDebugHooks routes HTTP and cache events to the debug log.
func installDebugHooks(l *log.Logger) {
	observability.SetHTTPHooks(httpLogHooks{l})
	observability.SetCacheHooks(cacheLogHooks{l})
}

type httpLogHooks struct{ l *log.Logger }

func (h httpLogHooks) OnRequest(ctx context.Context, method, host, path string) {}

func (h httpLogHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	h.l.Debug("http", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h httpLogHooks) OnError(ctx context.Context, method, host, path string, err error) {
	h.l.Debug("http failed", "method", method, "host", host, "path", path, "error", err)
}

type cacheLogHooks struct{ l *log.Logger }

func (h cacheLogHooks) OnCacheHit(ctx context.Context, scope string) {
	h.l.Debug("cache hit", "scope", scope)
}

func (h cacheLogHooks) OnCacheMiss(ctx context.Context, scope string) {
	h.l.Debug("cache miss", "scope", scope)
}

func (h cacheLogHooks) OnCacheSet(ctx context.Context, scope string, size int) {
	h.l.Debug("cache set", "scope", scope, "bytes", size)
}
