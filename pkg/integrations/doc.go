// Package integrations provides HTTP clients for the metadata sources used to
// resolve package names and measure repository popularity.
//
// # Overview
//
// Each source has its own subpackage:
//
//   - [pypi]: Python Package Index JSON API (primary registry metadata)
//   - [librariesio]: Libraries.io project API (fallback metadata, needs an API key)
//   - [github]: repository ids, links and the dependents page
//
// # Client Pattern
//
// All clients embed [Client] and follow a consistent pattern:
//
//	client := pypi.NewClient("", 10*time.Second)  // "" = default endpoint
//	pkg, err := client.FetchPackage(ctx, "fastapi")
//
// Clients do not cache and do not retry. Callers decide what a failure
// means; the rank package memoizes results with [cache.Do] and turns every
// failure into an absent value.
//
// # Errors
//
//   - [ErrNotFound]: the registry answered 404
//   - [ErrNetwork]: transport failure, timeout, or any other non-200 status
//   - [ErrDecode]: the body was not the expected JSON
//
// Error messages never include query strings, which may carry API keys.
//
// [pypi]: github.com/matzehuels/deprank/pkg/integrations/pypi
// [librariesio]: github.com/matzehuels/deprank/pkg/integrations/librariesio
// [github]: github.com/matzehuels/deprank/pkg/integrations/github
// [cache.Do]: github.com/matzehuels/deprank/pkg/cache.Do
package integrations
