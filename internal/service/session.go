package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/incidentmap/internal/boundary"
	"github.com/smartcity/incidentmap/internal/cluster"
	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/geo"
	"github.com/smartcity/incidentmap/internal/metrics"
	"github.com/smartcity/incidentmap/internal/viewport"
)

// ErrAlreadyLoaded is returned by a second Load on the same session
var ErrAlreadyLoaded = errors.New("service: session snapshot already loaded")

// FetchFailureMessage is the blocking notice shown when the snapshot cannot be loaded
const FetchFailureMessage = "Failed to load incidents. Please try again later."

// Notifier surfaces a DataFetchFailure to the user. It is called at most once per session.
type Notifier interface {
	NotifyFetchFailure(sessionID string, err error)
}

// Notice is the user-visible form of a DataFetchFailure
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FetchFailureNotice is the blocking notice of a failed snapshot load
func FetchFailureNotice() Notice {
	return Notice{Kind: "data_fetch_failure", Message: FetchFailureMessage}
}

// MapView is the renderer state a render is computed for
type MapView struct {
	Zoom   *float64 `json:"zoom,omitempty"`
	Width  float64  `json:"width,omitempty"`
	Height float64  `json:"height,omitempty"`
}

// RenderResult is everything the map layer needs to redraw
type RenderResult struct {
	Seq                 uint64                 `json:"seq"`
	Predicate           domain.FilterPredicate `json:"predicate"`
	Matched             int                    `json:"matched"`
	Positioned          int                    `json:"positioned"`
	Zoom                int                    `json:"zoom"`
	Clusters            []cluster.Cluster      `json:"clusters"`
	Bounds              geo.Region             `json:"bounds"`
	Viewport            *viewport.Viewport     `json:"viewport"`
	NoChange            bool                   `json:"no_change"`
	HighlightedDistrict *string                `json:"highlighted_district"`
}

// SessionDeps are the collaborators shared by all sessions
type SessionDeps struct {
	Clusterer   *cluster.Clusterer
	Viewport    *viewport.Controller
	Boundaries  *boundary.Layer
	Notifier    Notifier
	Logger      *zap.Logger
	DefaultZoom float64
}

// Session is one map page's filter state. Its only mutable state is the active predicate;
// the snapshot is fixed after Load. Transitions are serialized, so results are produced
// in the order selections arrive.
type Session struct {
	id   string
	deps SessionDeps

	mu        sync.Mutex
	loaded    bool
	index     *Index
	vocab     domain.Vocabularies
	predicate domain.FilterPredicate
	fetchErr  error
	seq       uint64
	lastSeen  time.Time
}

// NewSession creates an unloaded session with an empty predicate
func NewSession(id string, deps SessionDeps) *Session {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clusterer == nil {
		deps.Clusterer = cluster.New(cluster.DefaultOptions())
	}
	if deps.Viewport == nil {
		deps.Viewport, _ = viewport.New(viewport.Padding{}, 0, cluster.DefaultOptions().MaxZoom)
	}
	return &Session{
		id:       id,
		deps:     deps,
		index:    NewIndex(nil),
		vocab:    domain.EmptyVocabularies(),
		lastSeen: time.Now(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Load fetches the snapshot once. On failure the session carries on with an empty
// snapshot, the notifier is told once and the *domain.FetchError is returned.
func (s *Session) Load(ctx context.Context, src domain.SnapshotSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return ErrAlreadyLoaded
	}
	s.loaded = true
	s.lastSeen = time.Now()

	snapshot, err := src.FetchSnapshot(ctx)
	if err != nil {
		var fe *domain.FetchError
		if !errors.As(err, &fe) {
			fe = &domain.FetchError{Source: "snapshot", Err: err}
		}
		s.fetchErr = fe
		metrics.SnapshotFetchFailuresTotal.WithLabelValues(fe.Source).Inc()
		s.deps.Logger.Error("incident snapshot fetch failed",
			zap.String("session", s.id),
			zap.Error(err),
		)
		if s.deps.Notifier != nil {
			s.deps.Notifier.NotifyFetchFailure(s.id, fe)
		}
		return fe
	}

	s.index = NewIndex(snapshot)
	s.vocab = BuildVocabularies(snapshot)
	metrics.SnapshotSize.Set(float64(len(snapshot)))
	s.deps.Logger.Info("incident snapshot loaded",
		zap.String("session", s.id),
		zap.Int("incidents", len(snapshot)),
	)
	return nil
}

// FetchError returns the DataFetchFailure of Load, if any
func (s *Session) FetchError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// Notice returns the user-visible fetch failure notice, or nil
func (s *Session) Notice() *Notice {
	if s.FetchError() == nil {
		return nil
	}
	n := FetchFailureNotice()
	return &n
}

// Vocabularies returns the dropdown values; they never change after Load
func (s *Session) Vocabularies() domain.Vocabularies {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Vocabularies{
		District:  slices.Clone(s.vocab.District),
		Complaint: slices.Clone(s.vocab.Complaint),
		CallType:  slices.Clone(s.vocab.CallType),
	}
}

// ActivePredicate returns the current predicate
func (s *Session) ActivePredicate() domain.FilterPredicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predicate
}

// LastSeen is the time of the last interaction
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SetFilter replaces the fields present in u and renders the result
func (s *Session) SetFilter(u domain.PredicateUpdate, view MapView) RenderResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predicate = u.Apply(s.predicate)
	return s.render(view)
}

// Handle applies one dropdown change event
func (s *Session) Handle(ev domain.SelectionEvent, view MapView) (RenderResult, error) {
	u, err := ev.Update()
	if err != nil {
		return RenderResult{}, err
	}
	return s.SetFilter(u, view), nil
}

// Render redraws the current predicate, e.g. after a zoom change
func (s *Session) Render(view MapView) RenderResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render(view)
}

// render runs filter -> cluster -> viewport -> highlight. Callers hold s.mu.
func (s *Session) render(view MapView) RenderResult {
	start := time.Now()
	s.seq++
	s.lastSeen = start

	p := s.predicate
	matched := s.index.Apply(p)
	positioned := WithPosition(matched)

	zoom := s.deps.DefaultZoom
	if view.Zoom != nil {
		zoom = *view.Zoom
	}

	var clustered cluster.Result
	if len(positioned) > 0 {
		clustered = s.deps.Clusterer.Cluster(positioned, zoom)
	} else {
		clustered = cluster.Result{
			Zoom:     s.deps.Clusterer.ZoomLevel(zoom),
			Clusters: []cluster.Cluster{},
			Bounds:   geo.NoRegion,
		}
	}

	in := viewport.Input{
		Clusters: clustered.Bounds,
		Boundary: geo.NoRegion,
		Size:     viewport.MapSize{Width: view.Width, Height: view.Height},
	}
	var highlighted *string
	if p.District != "" {
		district := p.District
		highlighted = &district
		if r, ok := s.deps.Boundaries.Lookup(district); ok {
			in.Boundary = r
		}
	}

	res := RenderResult{
		Seq:                 s.seq,
		Predicate:           p,
		Matched:             len(matched),
		Positioned:          len(positioned),
		Zoom:                clustered.Zoom,
		Clusters:            clustered.Clusters,
		Bounds:              clustered.Bounds,
		HighlightedDistrict: highlighted,
	}
	if vp, ok := s.deps.Viewport.Resolve(in); ok {
		res.Viewport = &vp
		metrics.RendersTotal.WithLabelValues(string(vp.Source)).Inc()
	} else {
		res.NoChange = true
		metrics.RendersTotal.WithLabelValues("no_change").Inc()
	}

	metrics.VisibleClusters.Observe(float64(len(res.Clusters)))
	metrics.RenderDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	s.deps.Logger.Debug("session rendered",
		zap.String("session", s.id),
		zap.Uint64("seq", res.Seq),
		zap.Int("matched", res.Matched),
		zap.Int("clusters", len(res.Clusters)),
		zap.Bool("no_change", res.NoChange),
	)
	return res
}
