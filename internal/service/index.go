package service

import (
	"github.com/smartcity/incidentmap/internal/domain"
)

// Index maps attribute values to snapshot ordinals so a predicate can be answered
// by intersecting posting lists. It is built once per snapshot and never changes.
type Index struct {
	snapshot []domain.Incident
	postings [3]map[string][]int
}

// NewIndex indexes every non-empty attribute value of the snapshot
func NewIndex(snapshot []domain.Incident) *Index {
	idx := &Index{snapshot: snapshot}
	for _, attr := range domain.Attributes {
		idx.postings[attr] = make(map[string][]int)
	}
	for i, inc := range snapshot {
		for _, attr := range domain.Attributes {
			if v := inc.Attribute(attr); v != "" {
				idx.postings[attr][v] = append(idx.postings[attr][v], i)
			}
		}
	}
	return idx
}

// Snapshot returns the indexed snapshot
func (idx *Index) Snapshot() []domain.Incident { return idx.snapshot }

// Apply has the same result as the package-level Apply
func (idx *Index) Apply(p domain.FilterPredicate) []domain.Incident {
	if p.IsEmpty() {
		return idx.snapshot
	}

	var lists [][]int
	for _, attr := range domain.Attributes {
		v := p.Value(attr)
		if v == "" {
			continue
		}
		list, ok := idx.postings[attr][v]
		if !ok {
			return []domain.Incident{}
		}
		lists = append(lists, list)
	}

	ordinals := lists[0]
	for _, list := range lists[1:] {
		ordinals = intersect(ordinals, list)
	}

	out := make([]domain.Incident, len(ordinals))
	for i, ord := range ordinals {
		out[i] = idx.snapshot[ord]
	}
	return out
}

// intersect merges two ascending ordinal lists
func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
