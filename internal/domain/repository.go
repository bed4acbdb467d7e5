package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrDataFetch marks a failed snapshot fetch
var ErrDataFetch = errors.New("incident snapshot could not be retrieved")

// FetchError is the DataFetchFailure reported to the user
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, ErrDataFetch.Error(), e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrDataFetch, e.Err}
}

// IncidentRepository is the data-access layer behind the map.
// This follows the Dependency Inversion Principle - domain defines the interface
type IncidentRepository interface {
	// FetchSnapshot returns the full incident collection
	FetchSnapshot(ctx context.Context) ([]Incident, error)

	// FilterIncidents returns matching incidents with the same semantics as FilterPredicate.Matches
	FilterIncidents(ctx context.Context, p FilterPredicate) ([]Incident, error)

	// Health checks connectivity
	Health(ctx context.Context) error
}

// SnapshotSource is the one-shot read a session consumes
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]Incident, error)
}
