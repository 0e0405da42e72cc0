package rank

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/deprank/pkg/cache"
	"github.com/matzehuels/deprank/pkg/errors"
	"github.com/matzehuels/deprank/pkg/integrations"
	"github.com/matzehuels/deprank/pkg/integrations/github"
	"github.com/matzehuels/deprank/pkg/integrations/librariesio"
	"github.com/matzehuels/deprank/pkg/integrations/pypi"
)

// Source names where a repository id came from.
type Source string

const (
	SourceNone     Source = ""
	SourceDirect   Source = "direct"
	SourceRegistry Source = "pypi"
	SourceFallback Source = "libraries.io"
)

// RegistrySource looks up package metadata. Implemented by [pypi.Client].
type RegistrySource interface {
	FetchPackage(ctx context.Context, pkg string) (*pypi.PackageInfo, error)
}

// FallbackSource maps package names to repository URLs. Implemented by
// [librariesio.Client]. The fallback is consulted only while Enabled.
type FallbackSource interface {
	Enabled() bool
	FetchProject(ctx context.Context, pkg string) (*librariesio.Project, error)
}

// Resolver maps package names to GitHub repository ids.
//
// PyPI metadata is tried first. When it carries no GitHub link and the
// fallback is enabled, Libraries.io is asked next. Lookup failures are
// logged and treated as "no data".
type Resolver struct {
	Registry RegistrySource
	Fallback FallbackSource
	Memo     *cache.Memo
	Logger   *log.Logger
}

// NewResolver creates a Resolver. fallback may be nil.
func NewResolver(memo *cache.Memo, registry RegistrySource, fallback FallbackSource, logger *log.Logger) *Resolver {
	if memo == nil {
		memo = cache.NewMemo(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{Registry: registry, Fallback: fallback, Memo: memo, Logger: logger}
}

// Resolve returns the repository id of pkg and where it was found, or
// ("", SourceNone) when no source knows one.
func (r *Resolver) Resolve(ctx context.Context, pkg string) (string, Source) {
	if err := errors.ValidatePythonPackageName(pkg); err != nil {
		r.Logger.Debug("skipping package", "package", pkg, "error", errors.UserMessage(err))
		return "", SourceNone
	}

	if id := r.fromRegistry(ctx, pkg); id != "" {
		return id, SourceRegistry
	}
	if r.Fallback == nil || !r.Fallback.Enabled() {
		return "", SourceNone
	}
	if id := r.fromFallback(ctx, pkg); id != "" {
		return id, SourceFallback
	}
	return "", SourceNone
}

func (r *Resolver) fromRegistry(ctx context.Context, pkg string) string {
	if r.Registry == nil {
		return ""
	}
	key := integrations.NormalizePkgName(pkg)
	id, _, err := cache.Do(ctx, r.Memo, RegistryScope, key, func(ctx context.Context) (string, error) {
		info, err := r.Registry.FetchPackage(ctx, pkg)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.Logger.Debug("pypi lookup failed", "package", pkg, "error", err)
			return "", nil
		}
		for _, u := range info.CandidateURLs() {
			if !github.HasDomain(u) {
				continue
			}
			if id := github.ParseRepoID(integrations.NormalizeRepoURL(u)); id != "" {
				return id, nil
			}
		}
		return "", nil
	})
	if err != nil {
		return ""
	}
	return id
}

func (r *Resolver) fromFallback(ctx context.Context, pkg string) string {
	id, _, err := cache.Do(ctx, r.Memo, FallbackScope, pkg, func(ctx context.Context) (string, error) {
		p, err := r.Fallback.FetchProject(ctx, pkg)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.Logger.Debug("libraries.io lookup failed", "package", pkg, "error", err)
			return "", nil
		}
		if !github.HasDomain(p.RepositoryURL) {
			return "", nil
		}
		return github.ParseRepoID(integrations.NormalizeRepoURL(p.RepositoryURL)), nil
	})
	if err != nil {
		return ""
	}
	return id
}
