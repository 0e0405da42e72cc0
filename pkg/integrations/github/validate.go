package github

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// validSegment matches one half of an owner/repo id.
var validSegment = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ErrInvalidRepoID is returned for ids that are not of the form owner/repo.
var ErrInvalidRepoID = errors.New("invalid repository id")

// ValidateRepoID checks that id is exactly two non-empty segments of
// letters, digits, '_', '-' or '.' joined by a single '/'.
func ValidateRepoID(id string) error {
	_, _, err := SplitRepoID(id)
	return err
}

// SplitRepoID splits a canonical "owner/repo" id into its two parts.
func SplitRepoID(id string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(id, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q: use owner/repo", ErrInvalidRepoID, id)
	}
	if !validSegment.MatchString(owner) || !validSegment.MatchString(repo) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoID, id)
	}
	// "." and ".." would escape the repository path.
	if strings.Trim(owner, ".") == "" || strings.Trim(repo, ".") == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoID, id)
	}
	return owner, repo, nil
}
