// Package librariesio provides an HTTP client for the Libraries.io project API.
//
// Libraries.io maps package names to canonical repository URLs across
// registries. It serves as the fallback source when PyPI metadata does not
// point at a GitHub repository.
//
// # Authentication
//
// Every request needs an API key. A client created without one is inert:
// [Client.Enabled] reports false and [Client.FetchProject] fails with
// [ErrNoAPIKey] without touching the network.
//
//	client := librariesio.NewClient("", os.Getenv("LIBRARIES_IO_API_KEY"), 10*time.Second)
//	if client.Enabled() {
//	    proj, err := client.FetchProject(ctx, "requests")
//	    ...
//	    fmt.Println(proj.RepositoryURL)
//	}
//
// The key travels as a query parameter and is never included in errors or
// hook events.
package librariesio
