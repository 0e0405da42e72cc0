// Package github provides access to GitHub repository references and the
// dependents page of a repository.
//
// # Repository ids
//
// [ParseRepoID] turns URLs and bare references into the canonical
// "owner/repo" form used throughout deprank:
//
//	github.ParseRepoID("https://github.com/numpy/numpy")  // "numpy/numpy"
//	github.ParseRepoID("github.com/numpy/numpy/")         // "numpy/numpy"
//	github.ParseRepoID("pandas-dev/pandas")               // "pandas-dev/pandas"
//	github.ParseRepoID("numpy")                           // ""
//
// [RepoURL] and [DependentsURL] build the matching web links.
//
// # Dependents
//
// GitHub reports how many public repositories depend on a repository on
// its "network/dependents" page. The count is not available from the
// REST API, so [Client.DependentsPage] fetches the HTML and
// [ExtractDependents] reads the "N Repositories" counter from it:
//
//	client := github.NewClient("", 10*time.Second)
//	page, err := client.DependentsPage(ctx, "numpy/numpy")
//	if err != nil {
//	    return err
//	}
//	n, ok := github.ExtractDependents(page)
//
// The extractor is the only code coupled to GitHub's markup.
package github
