package github

import (
	"regexp"
	"strings"
)

// WebURL is the root of the GitHub web interface. Links in results always
// point here, whatever base URL the dependents client was built with.
const WebURL = "https://github.com"

// domainMarker identifies a string as a GitHub reference.
const domainMarker = "github.com"

var (
	// urlForm captures the first two path segments after the domain.
	urlForm = regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)`)
	// directForm is a bare owner/repo.
	directForm = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// HasDomain reports whether s mentions github.com, ignoring case.
func HasDomain(s string) bool {
	return strings.Contains(strings.ToLower(s), domainMarker)
}

// ParseRepoID extracts a canonical "owner/repo" id from s.
//
// Accepted forms:
//
//	https://github.com/owner/repo
//	github.com/owner/repo/tree/main
//	git@github.com:owner/repo.git
//	owner/repo
//
// Anything following the second path segment is ignored, as is a trailing
// ".git" on URL forms. A string that is neither form yields "".
func ParseRepoID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if HasDomain(s) {
		s = strings.Replace(s, "github.com:", "github.com/", 1)
		m := urlForm.FindStringSubmatch(s)
		if m == nil {
			return ""
		}
		owner, repo := m[1], strings.TrimSuffix(m[2], ".git")
		if repo == "" {
			return ""
		}
		return owner + "/" + repo
	}

	if directForm.MatchString(s) {
		return s
	}
	return ""
}

// RepoURL returns the web URL of a repository id.
func RepoURL(id string) string {
	return WebURL + "/" + id
}

// DependentsURL returns the web URL of a repository's dependents page.
func DependentsURL(id string) string {
	return RepoURL(id) + "/network/dependents"
}
