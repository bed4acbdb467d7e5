package service

import (
	"github.com/smartcity/incidentmap/internal/domain"
)

// Apply returns the incidents matching p, in snapshot order.
// The empty predicate returns the snapshot itself.
func Apply(snapshot []domain.Incident, p domain.FilterPredicate) []domain.Incident {
	if p.IsEmpty() {
		return snapshot
	}
	out := make([]domain.Incident, 0)
	for _, inc := range snapshot {
		if p.Matches(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// WithPosition keeps the incidents that can be placed on the map
func WithPosition(incidents []domain.Incident) []domain.Incident {
	out := make([]domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if inc.HasPosition() {
			out = append(out, inc)
		}
	}
	return out
}
