// Package cluster groups positioned incidents into map-marker clusters.
//
// Clustering runs in web-mercator pixel space at the requested zoom, so the same
// incidents separate into more clusters as the map zooms in. Each call starts from
// scratch; nothing is carried over from a previous render.
package cluster

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/geo"
	"github.com/smartcity/incidentmap/pkg/utils"
)

// Options controls the pixel footprint used for merging
type Options struct {
	RadiusPx       float64 // maximum anchor distance for a marker to join a cluster
	MarkerRadiusPx float64 // circle-marker radius; two markers overlap below 2*MarkerRadiusPx
	MinZoom        int
	MaxZoom        int
}

// DefaultOptions match the Leaflet markercluster defaults used by the map page
func DefaultOptions() Options {
	return Options{RadiusPx: 80, MarkerRadiusPx: 8, MinZoom: 0, MaxZoom: 18}
}

// Cluster is one rendered marker group. Popups[i] is the tooltip and popup text of Members[i].
type Cluster struct {
	ID            string                   `json:"id"`
	Center        domain.Position          `json:"center"`
	Count         int                      `json:"count"`
	Bounds        geo.Region               `json:"bounds"`
	ExpansionZoom int                      `json:"expansion_zoom"`
	Members       []domain.Incident        `json:"members"`
	Popups        []domain.IncidentDisplay `json:"popups"`
}

// Result of one clustering pass
type Result struct {
	Zoom     int        `json:"zoom"`
	Clusters []Cluster  `json:"clusters"`
	Bounds   geo.Region `json:"bounds"`
}

// Clusterer is stateless apart from its options
type Clusterer struct {
	opts Options
}

// New creates a clusterer, falling back to defaults for unset values
func New(opts Options) *Clusterer {
	def := DefaultOptions()
	if opts.RadiusPx <= 0 {
		opts.RadiusPx = def.RadiusPx
	}
	if opts.MarkerRadiusPx <= 0 {
		opts.MarkerRadiusPx = def.MarkerRadiusPx
	}
	if opts.MaxZoom <= 0 || opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = def.MaxZoom
	}
	opts.MinZoom = utils.ClampInt(opts.MinZoom, 0, opts.MaxZoom)
	return &Clusterer{opts: opts}
}

// Options returns the effective options
func (c *Clusterer) Options() Options { return c.opts }

type member struct {
	incident domain.Incident
	point    orb.Point
}

type group struct {
	anchor  orb.Point
	members []member
}

// Cluster groups the incidents that carry a position. Incidents without one are skipped.
func (c *Clusterer) Cluster(incidents []domain.Incident, zoom float64) Result {
	z := c.ZoomLevel(zoom)
	members := positioned(incidents)

	points := make([]orb.Point, len(members))
	for i, m := range members {
		points[i] = m.point
	}
	res := Result{
		Zoom:     z,
		Clusters: make([]Cluster, 0),
		Bounds:   geo.RegionOf(points),
	}
	if len(members) == 0 {
		return res
	}

	seen := make(map[string]int)
	for _, g := range c.group(members, z) {
		cl := c.build(g, z)
		if n := seen[cl.ID]; n > 0 {
			cl.ID = fmt.Sprintf("%s-%d", cl.ID, n)
		}
		seen[cl.ID]++
		res.Clusters = append(res.Clusters, cl)
	}
	return res
}

// ExpansionZoom returns the lowest zoom above zoom at which the incidents split into
// more than one cluster, or MaxZoom when they never do.
func (c *Clusterer) ExpansionZoom(incidents []domain.Incident, zoom float64) int {
	return c.expansionZoom(positioned(incidents), c.ZoomLevel(zoom))
}

func (c *Clusterer) expansionZoom(members []member, z int) int {
	if len(members) <= 1 {
		return z
	}
	for next := z + 1; next <= c.opts.MaxZoom; next++ {
		if len(c.group(members, next)) > 1 {
			return next
		}
	}
	return c.opts.MaxZoom
}

// ZoomLevel clamps zoom to the configured range and truncates it to a whole level
func (c *Clusterer) ZoomLevel(zoom float64) int {
	if math.IsNaN(zoom) {
		zoom = float64(c.opts.MinZoom)
	}
	return int(math.Floor(utils.Clamp(zoom, float64(c.opts.MinZoom), float64(c.opts.MaxZoom))))
}

// mergeDistance is the pixel distance below which markers share a cluster
func (c *Clusterer) mergeDistance() float64 {
	return math.Max(c.opts.RadiusPx, 2*c.opts.MarkerRadiusPx)
}

// group assigns each member, in input order, to the nearest existing cluster whose
// anchor is within mergeDistance, or opens a new cluster anchored at the member.
func (c *Clusterer) group(members []member, z int) []*group {
	cell := c.mergeDistance()
	grid := make(map[[2]int][]int)
	var groups []*group

	for _, m := range members {
		px := geo.ToPixel(m.point, float64(z))
		cx, cy := int(math.Floor(px.X()/cell)), int(math.Floor(px.Y()/cell))

		best, bestD := -1, math.Inf(1)
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, gi := range grid[[2]int{cx + dx, cy + dy}] {
					d := pixelDistance(groups[gi].anchor, px)
					if d > cell {
						continue
					}
					if d < bestD || (d == bestD && gi < best) {
						best, bestD = gi, d
					}
				}
			}
		}

		if best >= 0 {
			groups[best].members = append(groups[best].members, m)
			continue
		}
		key := [2]int{cx, cy}
		grid[key] = append(grid[key], len(groups))
		groups = append(groups, &group{anchor: px, members: []member{m}})
	}
	return groups
}

func (c *Clusterer) build(g *group, z int) Cluster {
	var sumLon, sumLat float64
	bounds := geo.NoRegion
	incidents := make([]domain.Incident, len(g.members))
	popups := make([]domain.IncidentDisplay, len(g.members))
	for i, m := range g.members {
		sumLon += m.point.Lon()
		sumLat += m.point.Lat()
		bounds = bounds.Extend(m.point)
		incidents[i] = m.incident
		popups[i] = m.incident.Display()
	}
	n := float64(len(g.members))
	center := domain.Position{Lon: sumLon / n, Lat: sumLat / n}

	return Cluster{
		ID:            cellToken(center),
		Center:        center,
		Count:         len(g.members),
		Bounds:        bounds,
		ExpansionZoom: c.expansionZoom(g.members, z),
		Members:       incidents,
		Popups:        popups,
	}
}

func positioned(incidents []domain.Incident) []member {
	members := make([]member, 0, len(incidents))
	for _, inc := range incidents {
		if inc.Position == nil {
			continue
		}
		members = append(members, member{
			incident: inc,
			point:    orb.Point{inc.Position.Lon, inc.Position.Lat},
		})
	}
	return members
}

func pixelDistance(a, b orb.Point) float64 {
	return math.Hypot(a.X()-b.X(), a.Y()-b.Y())
}

// cellToken names a cluster by the leaf S2 cell of its center
func cellToken(p domain.Position) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).ToToken()
}
