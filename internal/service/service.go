// Package service holds the incident filter, the per-page filter session and the
// map-level orchestration around them.
package service

import (
	"github.com/smartcity/incidentmap/internal/domain"
)

// IncidentRepository is re-exported from domain for convenience
type IncidentRepository = domain.IncidentRepository
