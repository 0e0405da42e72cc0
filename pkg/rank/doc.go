// Package rank turns a free-form list of Python package names and GitHub
// repository references into a table ranked by GitHub dependents.
//
// # Pipeline
//
// [Aggregator.Aggregate] drives the whole run:
//
//  1. [Tokenize] splits the input on commas and whitespace.
//  2. Each token is parsed as a repository id, or else handed to the
//     [Resolver], which asks PyPI and then Libraries.io for a GitHub link.
//  3. Tokens resolving to an id already seen are dropped.
//  4. The [Fetcher] scrapes the dependents count of every unique id.
//  5. Rows are sorted by count, highest first, unknown counts last.
//
// # Failure handling
//
// Remote failures never abort a run. A package that cannot be resolved
// yields a row with no count and no links; a dependents page that cannot
// be fetched or parsed yields a count of 0. [Options.Strict] keeps the
// reason instead and reports such counts as unknown.
//
// The only error Aggregate returns is the context's, when the run is
// cancelled before completion.
//
// # Caching
//
// Every stage is memoized in a [cache.Memo] under its own scope:
//
//	pypi-repo           7 days    package → repo id via PyPI
//	librariesio-repo    48 hours  package → repo id via Libraries.io
//	github-dependents   48 hours  repo id → dependents count
//	aggregate           24 hours  input text → result table
//
// Empty resolutions and failed counts are cached like any other result.
package rank
