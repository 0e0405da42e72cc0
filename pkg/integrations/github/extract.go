package github

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var repositoriesPattern = regexp.MustCompile(`(?i)([0-9][0-9,]*)\s+Repositories`)

// ExtractDependents reads the "N Repositories" counter from the HTML of a
// dependents page. It reports false when the page carries no such counter.
//
// Text nodes are searched first, in document order, so script bodies and
// attribute values never match. If the counter is split across elements
// the concatenated page text is searched instead.
func ExtractDependents(page string) (int, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return matchCount(page)
	}

	var (
		texts []string
		found = -1
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found >= 0 {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if c, ok := matchCount(n.Data); ok {
				found = c
				return
			}
			texts = append(texts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found >= 0 {
		return found, true
	}
	return matchCount(strings.Join(texts, " "))
}

func matchCount(s string) (int, bool) {
	m := repositoriesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}
