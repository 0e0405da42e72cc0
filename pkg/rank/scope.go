package rank

import (
	"time"

	"github.com/matzehuels/deprank/pkg/cache"
)

// Cache scopes of the pipeline stages.
var (
	RegistryScope        = cache.Scope{Name: "pypi-repo", TTL: 7 * 24 * time.Hour}
	FallbackScope        = cache.Scope{Name: "librariesio-repo", TTL: 48 * time.Hour}
	DependentsScope      = cache.Scope{Name: "github-dependents", TTL: 48 * time.Hour}
	AggregateScope       = cache.Scope{Name: "aggregate", TTL: 24 * time.Hour}
	StrictAggregateScope = cache.Scope{Name: "aggregate:strict", TTL: 24 * time.Hour}
)
