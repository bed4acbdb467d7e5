// Package geo holds the bounding-region and web-mercator helpers shared by clustering and viewport fitting.
package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// Region is a lon/lat bounding box with an explicit validity flag.
// The zero value is NoRegion, never a box around (0,0).
type Region struct {
	bound orb.Bound
	valid bool
}

// NoRegion is the "no bounds" result for an empty point set
var NoRegion = Region{}

// NewRegion wraps an orb bound as a valid region
func NewRegion(b orb.Bound) Region {
	return Region{bound: b, valid: true}
}

// RegionOf returns the minimal region enclosing every point, or NoRegion
func RegionOf(points []orb.Point) Region {
	r := NoRegion
	for _, p := range points {
		r = r.Extend(p)
	}
	return r
}

// Valid reports whether the region encloses at least one point
func (r Region) Valid() bool { return r.valid }

// Bound returns the underlying orb bound. Meaningless when !Valid().
func (r Region) Bound() orb.Bound { return r.bound }

// Extend grows the region to include p
func (r Region) Extend(p orb.Point) Region {
	if !r.valid {
		return Region{bound: orb.Bound{Min: p, Max: p}, valid: true}
	}
	return Region{bound: r.bound.Extend(p), valid: true}
}

// Contains reports whether p lies inside the region (edges included)
func (r Region) Contains(p orb.Point) bool {
	return r.valid && r.bound.Contains(p)
}

type regionJSON struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// MarshalJSON encodes NoRegion as null
func (r Region) MarshalJSON() ([]byte, error) {
	if !r.valid {
		return []byte("null"), nil
	}
	return json.Marshal(regionJSON{
		MinLon: r.bound.Min.Lon(),
		MinLat: r.bound.Min.Lat(),
		MaxLon: r.bound.Max.Lon(),
		MaxLat: r.bound.Max.Lat(),
	})
}

// UnmarshalJSON accepts null as NoRegion
func (r *Region) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoRegion
		return nil
	}
	var w regionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = NewRegion(orb.Bound{
		Min: orb.Point{w.MinLon, w.MinLat},
		Max: orb.Point{w.MaxLon, w.MaxLat},
	})
	return nil
}
