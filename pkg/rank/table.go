package rank

import (
	"cmp"
	"slices"
)

// Row is one line of the ranked table. Nil fields are unknown.
type Row struct {
	Name          string  `json:"name"`
	Dependents    *int    `json:"dependents"`
	RepoURL       *string `json:"repo_url"`
	DependentsURL *string `json:"dependents_url"`
}

// Table is an ordered list of rows.
type Table []Row

// Sort orders rows by dependents, highest first, with unknown counts last.
// Rows with equal counts keep their relative order.
func (t Table) Sort() {
	slices.SortStableFunc(t, compareRows)
}

func compareRows(a, b Row) int {
	switch {
	case a.Dependents == nil && b.Dependents == nil:
		return 0
	case a.Dependents == nil:
		return 1
	case b.Dependents == nil:
		return -1
	}
	return cmp.Compare(*b.Dependents, *a.Dependents)
}
