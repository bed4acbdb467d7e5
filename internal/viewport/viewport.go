// Package viewport decides which map region a render should display.
package viewport

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/geo"
	"github.com/smartcity/incidentmap/pkg/utils"
)

// ErrNegativePadding is returned for padding below zero on either axis
var ErrNegativePadding = errors.New("viewport: padding must be non-negative")

// Source tells which geometry a viewport was fitted to
type Source string

const (
	SourceClusters Source = "clusters"
	SourceBoundary Source = "boundary"
)

// Padding is the pixel margin kept around fitted bounds
type Padding struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Validate rejects negative components
func (p Padding) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("%w: got (%g, %g)", ErrNegativePadding, p.X, p.Y)
	}
	return nil
}

// MapSize is the rendered map size in pixels; zero when unknown
type MapSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s MapSize) known() bool { return s.Width > 0 && s.Height > 0 }

// Input to Resolve
type Input struct {
	Clusters geo.Region // bounds of the clustered incidents
	Boundary geo.Region // bounds of the highlighted district, NoRegion when none
	Size     MapSize
}

// Viewport is the region the renderer should show.
// Zoom, Center and Padded are only set when the map size is known.
type Viewport struct {
	Source  Source           `json:"source"`
	Bounds  geo.Region       `json:"bounds"`
	Padding Padding          `json:"padding"`
	Padded  geo.Region       `json:"padded"`
	Center  *domain.Position `json:"center,omitempty"`
	Zoom    *int             `json:"zoom,omitempty"`
}

// Controller resolves viewports with a fixed padding and zoom range
type Controller struct {
	padding Padding
	minZoom int
	maxZoom int
}

// New creates a controller
func New(padding Padding, minZoom, maxZoom int) (*Controller, error) {
	if err := padding.Validate(); err != nil {
		return nil, err
	}
	if maxZoom < minZoom {
		return nil, fmt.Errorf("viewport: max zoom %d below min zoom %d", maxZoom, minZoom)
	}
	return &Controller{padding: padding, minZoom: minZoom, maxZoom: maxZoom}, nil
}

// Padding returns the configured padding
func (c *Controller) Padding() Padding { return c.padding }

// Resolve returns the viewport to display. The boolean is false for NoChange:
// neither a highlighted boundary nor a valid cluster region is available, and the
// caller must keep whatever region is currently shown.
func (c *Controller) Resolve(in Input) (Viewport, bool) {
	target, source := in.Clusters, SourceClusters
	if in.Boundary.Valid() {
		target, source = in.Boundary, SourceBoundary
	}
	if !target.Valid() {
		return Viewport{}, false
	}

	vp := Viewport{
		Source:  source,
		Bounds:  target,
		Padding: c.padding,
		Padded:  geo.NoRegion,
	}
	if in.Size.known() {
		zoom := c.fitZoom(target, in.Size)
		center := c.center(target, zoom)
		vp.Zoom = &zoom
		vp.Center = &center
		vp.Padded = geo.PadPixels(target, float64(zoom), c.padding.X, c.padding.Y)
	}
	return vp, true
}

// fitZoom is the largest zoom at which the padded region fits the map
func (c *Controller) fitZoom(r geo.Region, size MapSize) int {
	for z := c.maxZoom; z > c.minZoom; z-- {
		w, h := geo.PixelSize(r, float64(z))
		if w+2*c.padding.X <= size.Width && h+2*c.padding.Y <= size.Height {
			return z
		}
	}
	return c.minZoom
}

func (c *Controller) center(r geo.Region, zoom int) domain.Position {
	z := float64(zoom)
	b := r.Bound()
	sw := geo.ToPixel(b.Min, z)
	ne := geo.ToPixel(b.Max, z)
	mid := geo.FromPixel(orb.Point{(sw.X() + ne.X()) / 2, (sw.Y() + ne.Y()) / 2}, z)
	return domain.Position{Lon: utils.RoundTo(mid.Lon(), 6), Lat: utils.RoundTo(mid.Lat(), 6)}
}
