// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// # Overview
//
// This package fetches package metadata from PyPI (https://pypi.org) and
// exposes the links a package declares for its source repository.
//
// # Usage
//
//	client := pypi.NewClient("", 10*time.Second)
//
//	pkg, err := client.FetchPackage(ctx, "fastapi")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, u := range pkg.CandidateURLs() {
//	    fmt.Println(u)
//	}
//
// # Candidate URLs
//
// [PackageInfo.CandidateURLs] lists info.home_page first and then every
// entry of info.project_urls in the order PyPI serves them. The order is
// load-bearing: resolvers take the first GitHub link they can parse, so
// [ProjectURLs] decodes the JSON object without going through a map.
//
// Package names are normalized following PEP 503.
package pypi
