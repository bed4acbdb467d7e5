package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/smartcity/incidentmap/pkg/utils"
)

const (
	// TileSize is the pixel edge of one web map tile
	TileSize = 256

	// MaxLatitude is where spherical mercator is cut off
	MaxLatitude = 85.0511287798

	mercatorHalf = math.Pi * orb.EarthRadius
)

// WorldSize is the pixel width of the whole world at a zoom level
func WorldSize(zoom float64) float64 {
	return TileSize * math.Exp2(zoom)
}

// ToPixel projects lon/lat to global pixel coordinates at zoom (origin top-left)
func ToPixel(p orb.Point, zoom float64) orb.Point {
	lat := utils.Clamp(p.Lat(), -MaxLatitude, MaxLatitude)
	m := project.Point(orb.Point{p.Lon(), lat}, project.WGS84.ToMercator)
	scale := WorldSize(zoom) / (2 * mercatorHalf)
	return orb.Point{(m.X() + mercatorHalf) * scale, (mercatorHalf - m.Y()) * scale}
}

// FromPixel is the inverse of ToPixel
func FromPixel(px orb.Point, zoom float64) orb.Point {
	scale := WorldSize(zoom) / (2 * mercatorHalf)
	m := orb.Point{px.X()/scale - mercatorHalf, mercatorHalf - px.Y()/scale}
	return project.Point(m, project.Mercator.ToWGS84)
}

// PixelSize returns the width and height in pixels that r spans at zoom
func PixelSize(r Region, zoom float64) (float64, float64) {
	if !r.valid {
		return 0, 0
	}
	sw := ToPixel(orb.Point{r.bound.Min.Lon(), r.bound.Min.Lat()}, zoom)
	ne := ToPixel(orb.Point{r.bound.Max.Lon(), r.bound.Max.Lat()}, zoom)
	return math.Abs(ne.X() - sw.X()), math.Abs(sw.Y() - ne.Y())
}

// PadPixels expands r by dx/dy pixels on every side as seen at zoom
func PadPixels(r Region, zoom, dx, dy float64) Region {
	if !r.valid {
		return r
	}
	sw := ToPixel(orb.Point{r.bound.Min.Lon(), r.bound.Min.Lat()}, zoom)
	ne := ToPixel(orb.Point{r.bound.Max.Lon(), r.bound.Max.Lat()}, zoom)
	southWest := FromPixel(orb.Point{sw.X() - dx, sw.Y() + dy}, zoom)
	northEast := FromPixel(orb.Point{ne.X() + dx, ne.Y() - dy}, zoom)
	return NewRegion(orb.Bound{Min: southWest, Max: northEast})
}
