package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartcity/incidentmap/internal/boundary"
	"github.com/smartcity/incidentmap/internal/domain"
)

// BoundaryLoader produces the district boundary layer
type BoundaryLoader func() (*boundary.Layer, error)

// MapService wires the incident repository, the boundary layer and the session store
type MapService struct {
	repo     IncidentRepository
	loadBnd  BoundaryLoader
	sessions *SessionStore
	logger   *zap.Logger

	mu   sync.RWMutex
	deps SessionDeps
}

// NewMapService creates a new map service
func NewMapService(
	repo IncidentRepository,
	loadBnd BoundaryLoader,
	deps SessionDeps,
	sessions *SessionStore,
) *MapService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Boundaries == nil {
		deps.Boundaries = boundary.Empty()
	}
	return &MapService{
		repo:     repo,
		loadBnd:  loadBnd,
		sessions: sessions,
		logger:   deps.Logger,
		deps:     deps,
	}
}

// Bootstrap loads the boundary layer and warms the snapshot concurrently.
// Neither failure is fatal: the map still works without boundaries, and a failed
// snapshot is reported again to each session that tries to load it.
func (s *MapService) Bootstrap(ctx context.Context) {
	var (
		layer *boundary.Layer
		count int
		g     errgroup.Group
	)

	g.Go(func() error {
		if s.loadBnd == nil {
			return nil
		}
		l, err := s.loadBnd()
		if err != nil {
			s.logger.Warn("boundary layer unavailable", zap.Error(err))
			return nil
		}
		layer = l
		return nil
	})

	g.Go(func() error {
		snapshot, err := s.repo.FetchSnapshot(ctx)
		if err != nil {
			s.logger.Warn("snapshot warm-up failed", zap.Error(err))
			return nil
		}
		count = len(snapshot)
		return nil
	})

	_ = g.Wait()

	if layer != nil {
		s.mu.Lock()
		s.deps.Boundaries = layer
		s.mu.Unlock()
	}
	s.logger.Info("map service ready",
		zap.Int("districts", s.Boundaries().Len()),
		zap.Int("incidents", count),
	)
}

// Boundaries returns the current district layer
func (s *MapService) Boundaries() *boundary.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps.Boundaries
}

func (s *MapService) sessionDeps() SessionDeps {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deps
}

// CreateSession opens a session, loads its snapshot and renders the initial view.
// A DataFetchFailure does not fail the call; the session carries a Notice instead.
func (s *MapService) CreateSession(ctx context.Context, view MapView) (*Session, RenderResult) {
	sess := NewSession(uuid.NewString(), s.sessionDeps())
	if err := sess.Load(ctx, s.repo); err != nil {
		s.logger.Warn("session opened without incidents",
			zap.String("session", sess.ID()),
			zap.Error(err),
		)
	}
	s.sessions.Put(sess)
	return sess, sess.Render(view)
}

// Session returns a live session
func (s *MapService) Session(id string) (*Session, error) {
	return s.sessions.Get(id)
}

// CloseSession drops a session
func (s *MapService) CloseSession(id string) error {
	if !s.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Snapshot returns the full incident collection
func (s *MapService) Snapshot(ctx context.Context) ([]domain.Incident, error) {
	incidents, err := s.repo.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("map: failed to fetch snapshot: %w", err)
	}
	return incidents, nil
}

// Filter runs the predicate against storage
func (s *MapService) Filter(ctx context.Context, p domain.FilterPredicate) ([]domain.Incident, error) {
	incidents, err := s.repo.FilterIncidents(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("map: failed to filter incidents: %w", err)
	}
	return incidents, nil
}

// Vocabularies derives the dropdown values from the current snapshot
func (s *MapService) Vocabularies(ctx context.Context) (domain.Vocabularies, error) {
	incidents, err := s.Snapshot(ctx)
	if err != nil {
		return domain.EmptyVocabularies(), err
	}
	return BuildVocabularies(incidents), nil
}

// Health checks the repository
func (s *MapService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
