package postgres

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/smartcity/incidentmap/internal/domain"
)

// MockRepository implements domain.IncidentRepository for testing/demo mode
type MockRepository struct {
	incidents []domain.Incident
}

// NewMockRepository creates a mock repository seeded with demo incidents
func NewMockRepository() *MockRepository {
	return &MockRepository{incidents: generateDemoIncidents(42)}
}

// NewMockRepositoryWith serves a fixed snapshot
func NewMockRepositoryWith(incidents []domain.Incident) *MockRepository {
	return &MockRepository{incidents: incidents}
}

// FetchSnapshot returns a copy of the demo snapshot
func (r *MockRepository) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	out := make([]domain.Incident, len(r.incidents))
	copy(out, r.incidents)
	return out, nil
}

// FilterIncidents applies the predicate in memory
func (r *MockRepository) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	out := make([]domain.Incident, 0)
	for _, inc := range r.incidents {
		if p.Matches(inc) {
			out = append(out, inc)
		}
	}
	return out, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

// generateDemoIncidents scatters incidents around Madhya Pradesh district headquarters
func generateDemoIncidents(seed int64) []domain.Incident {
	rng := rand.New(rand.NewSource(seed))

	hotspots := []struct {
		lat, lon float64
		district string
		weight   int
	}{
		{23.2599, 77.4126, "Bhopal", 14},
		{22.7196, 75.8577, "Indore", 16},
		{23.1815, 79.9864, "Jabalpur", 10},
		{26.2183, 78.1828, "Gwalior", 9},
		{23.1765, 75.7849, "Ujjain", 7},
		{23.8388, 78.7378, "Sagar", 5},
	}
	complaints := []string{"Theft", "Assault", "Road Accident", "Domestic Violence", "Noise Complaint"}
	callTypes := []string{"Emergency", "Non-Emergency", "Information"}
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	incidents := make([]domain.Incident, 0, 64)
	n := 0
	for _, spot := range hotspots {
		for i := 0; i < spot.weight; i++ {
			n++
			inc := domain.Incident{
				ID:        fmt.Sprintf("INC-%04d", n),
				Datetime:  base.Add(time.Duration(rng.Intn(90*24)) * time.Hour).Format("2006-01-02 15:04:05"),
				Complaint: complaints[rng.Intn(len(complaints))],
				CallType:  callTypes[rng.Intn(len(callTypes))],
				District:  spot.district,
				Address:   fmt.Sprintf("Ward %d, %s", 1+rng.Intn(40), spot.district),
			}

			// Random offset within ~5km radius
			latOffset := (rng.Float64() - 0.5) * 0.1
			lonOffset := (rng.Float64() - 0.5) * 0.1
			inc.Position = &domain.Position{
				Lon: math.Round((spot.lon+lonOffset)*1e6) / 1e6,
				Lat: math.Round((spot.lat+latOffset)*1e6) / 1e6,
			}

			// A few records were never geocoded or lack a complaint
			if n%13 == 0 {
				inc.Position = nil
			}
			if n%17 == 0 {
				inc.Complaint = ""
			}
			incidents = append(incidents, inc)
		}
	}
	return incidents
}
