package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/incidentmap/internal/domain"
)

func TestMockRepository_DemoData(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	snapshot, err := repo.FetchSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 61)

	again, err := NewMockRepository().FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot, again, "demo data must be deterministic")

	var unpositioned, noComplaint int
	for _, inc := range snapshot {
		assert.NotEmpty(t, inc.ID)
		assert.NotEmpty(t, inc.District)
		if !inc.HasPosition() {
			unpositioned++
		}
		if inc.Complaint == "" {
			noComplaint++
		}
	}
	assert.Equal(t, 4, unpositioned)
	assert.Equal(t, 3, noComplaint)
}

func TestMockRepository_SnapshotIsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepositoryWith([]domain.Incident{{ID: "1", District: "Bhopal"}})

	snapshot, err := repo.FetchSnapshot(ctx)
	require.NoError(t, err)
	snapshot[0].District = "Indore"

	fresh, err := repo.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bhopal", fresh[0].District)
}

func TestMockRepository_Filter(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	snapshot, err := repo.FetchSnapshot(ctx)
	require.NoError(t, err)

	p := domain.FilterPredicate{District: "Indore", CallType: "Emergency"}
	got, err := repo.FilterIncidents(ctx, p)
	require.NoError(t, err)

	want := make([]domain.Incident, 0)
	for _, inc := range snapshot {
		if inc.District == "Indore" && inc.CallType == "Emergency" {
			want = append(want, inc)
		}
	}
	assert.Equal(t, want, got)

	none, err := repo.FilterIncidents(ctx, domain.FilterPredicate{District: "Nowhere"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.NoError(t, repo.Health(ctx))
}
