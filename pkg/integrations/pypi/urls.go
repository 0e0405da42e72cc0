package pypi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ProjectURL is one labeled entry of a package's project_urls table.
type ProjectURL struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ProjectURLs is the project_urls table as an ordered list.
//
// It decodes from a JSON object and keeps the keys in document order,
// which a Go map would lose. Entries whose value is not a string are
// dropped. A JSON null decodes to nil.
type ProjectURLs []ProjectURL

// Get returns the URL for label, compared case-insensitively.
func (p ProjectURLs) Get(label string) (string, bool) {
	for _, u := range p {
		if strings.EqualFold(u.Label, label) {
			return u.URL, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object into p, preserving key order.
// A JSON array of {label, url} objects is accepted as well, which is how
// encoding/json writes the slice back out.
func (p *ProjectURLs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case nil:
		*p = nil
		return nil
	case json.Delim('['):
		var list []ProjectURL
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*p = list
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("project_urls: unexpected token %v", tok)
	}

	var urls ProjectURLs
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := key.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if s, ok := value.(string); ok {
			urls = append(urls, ProjectURL{Label: label, URL: strings.TrimSpace(s)})
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = urls
	return nil
}
