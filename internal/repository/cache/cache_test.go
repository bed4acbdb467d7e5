package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/metrics"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}}
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttl = ttl
	return nil
}

type countingRepo struct {
	mu        sync.Mutex
	fetches   int
	incidents []domain.Incident
	err       error
}

func (r *countingRepo) FetchSnapshot(ctx context.Context) ([]domain.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if r.err != nil {
		return nil, r.err
	}
	return r.incidents, nil
}

func (r *countingRepo) FilterIncidents(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	out := make([]domain.Incident, 0)
	for _, inc := range r.incidents {
		if p.Matches(inc) {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (r *countingRepo) Health(ctx context.Context) error { return nil }

func sampleIncidents() []domain.Incident {
	return []domain.Incident{
		{ID: "1", Complaint: "Theft", District: "Bhopal", CallType: "Emergency", Position: &domain.Position{Lon: 77.41, Lat: 23.26}},
		{ID: "2", Complaint: "Assault", District: "Indore", CallType: "Information"},
	}
}

func TestFetchSnapshot_SecondFetchIsServedFromCache(t *testing.T) {
	inner := &countingRepo{incidents: sampleIncidents()}
	store := newMemoryStore()
	repo := NewRepository(inner, store, 5*time.Minute, nil)

	hits := testutil.ToFloat64(metrics.CacheHitsTotal)
	misses := testutil.ToFloat64(metrics.CacheMissesTotal)

	first, err := repo.FetchSnapshot(context.Background())
	require.NoError(t, err)
	second, err := repo.FetchSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, inner.fetches)
	assert.Equal(t, first, second)
	assert.Nil(t, second[1].Position)
	assert.Equal(t, 5*time.Minute, store.ttl)
	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.CacheHitsTotal))
	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.CacheMissesTotal))
}

func TestFetchSnapshot_BrokenStoreFallsBack(t *testing.T) {
	inner := &countingRepo{incidents: sampleIncidents()}
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	repo := NewRepository(inner, store, time.Minute, nil)

	for i := 0; i < 2; i++ {
		incidents, err := repo.FetchSnapshot(context.Background())
		require.NoError(t, err)
		assert.Len(t, incidents, 2)
	}
	assert.Equal(t, 2, inner.fetches)
}

func TestFetchSnapshot_CorruptEntryIsRefetched(t *testing.T) {
	inner := &countingRepo{incidents: sampleIncidents()}
	store := newMemoryStore()
	store.data[snapshotKey] = []byte("not json")
	repo := NewRepository(inner, store, time.Minute, nil)

	incidents, err := repo.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, incidents, 2)
	assert.Equal(t, 1, inner.fetches)
}

func TestFetchSnapshot_InnerFailureIsNotCached(t *testing.T) {
	inner := &countingRepo{err: &domain.FetchError{Source: "postgres", Err: errors.New("timeout")}}
	store := newMemoryStore()
	repo := NewRepository(inner, store, time.Minute, nil)

	_, err := repo.FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrDataFetch)
	assert.Empty(t, store.data)
}

func TestFetchSnapshot_UnreachableRedis(t *testing.T) {
	client := OpenRedis("127.0.0.1:1", "", 0)
	require.NotNil(t, client)
	defer client.Close()

	inner := &countingRepo{incidents: sampleIncidents()}
	repo := NewRepository(inner, NewRedisStore(client, "test:"), time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	incidents, err := repo.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, incidents, 2)
}

func TestOpenRedis_EmptyAddrDisablesCache(t *testing.T) {
	assert.Nil(t, OpenRedis("", "", 0))
}

func TestFilterIncidents_Delegates(t *testing.T) {
	inner := &countingRepo{incidents: sampleIncidents()}
	repo := NewRepository(inner, newMemoryStore(), time.Minute, nil)

	incidents, err := repo.FilterIncidents(context.Background(), domain.FilterPredicate{District: "Indore"})
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "2", incidents[0].ID)
	assert.Equal(t, 0, inner.fetches)
}
