package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionOf(t *testing.T) {
	assert.False(t, RegionOf(nil).Valid())
	assert.Equal(t, NoRegion, RegionOf([]orb.Point{}))

	points := []orb.Point{{77.4, 23.3}, {75.8, 22.7}, {78.1, 26.2}}
	r := RegionOf(points)
	require.True(t, r.Valid())
	assert.Equal(t, orb.Bound{Min: orb.Point{75.8, 22.7}, Max: orb.Point{78.1, 26.2}}, r.Bound())
	for _, p := range points {
		assert.True(t, r.Contains(p))
	}
	assert.False(t, r.Contains(orb.Point{0, 0}))

	single := RegionOf([]orb.Point{{77.4, 23.3}})
	assert.True(t, single.Valid())
	assert.Equal(t, orb.Bound{Min: orb.Point{77.4, 23.3}, Max: orb.Point{77.4, 23.3}}, single.Bound())
}

func TestRegion_JSON(t *testing.T) {
	data, err := json.Marshal(NoRegion)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	r := NewRegion(orb.Bound{Min: orb.Point{75.8, 22.7}, Max: orb.Point{77.4, 23.3}})
	data, err = json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"min_lon": 75.8, "min_lat": 22.7, "max_lon": 77.4, "max_lat": 23.3}`, string(data))

	var back Region
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)

	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.False(t, back.Valid())
}

func TestToPixel(t *testing.T) {
	origin := ToPixel(orb.Point{0, 0}, 0)
	assert.InDelta(t, 128, origin.X(), 1e-6)
	assert.InDelta(t, 128, origin.Y(), 1e-6)

	// one zoom level doubles pixel distances
	a, b := orb.Point{77.4, 23.3}, orb.Point{75.8, 22.7}
	d6 := ToPixel(a, 6).X() - ToPixel(b, 6).X()
	d7 := ToPixel(a, 7).X() - ToPixel(b, 7).X()
	assert.InDelta(t, 2*d6, d7, 1e-6)

	// north is up
	assert.Less(t, ToPixel(orb.Point{77, 26}, 5).Y(), ToPixel(orb.Point{77, 22}, 5).Y())

	// poles are clamped
	assert.InDelta(t, 0, ToPixel(orb.Point{0, 89.9}, 0).Y(), 1e-6)
}

func TestFromPixel_RoundTrip(t *testing.T) {
	p := orb.Point{78.360745, 22.904047}
	back := FromPixel(ToPixel(p, 9), 9)
	assert.InDelta(t, p.Lon(), back.Lon(), 1e-9)
	assert.InDelta(t, p.Lat(), back.Lat(), 1e-9)
}

func TestPadPixels(t *testing.T) {
	r := RegionOf([]orb.Point{{77.2, 23.0}, {77.6, 23.5}})
	padded := PadPixels(r, 10, 50, 50)
	require.True(t, padded.Valid())
	assert.True(t, padded.Contains(r.Bound().Min))
	assert.True(t, padded.Contains(r.Bound().Max))

	w, h := PixelSize(r, 10)
	pw, ph := PixelSize(padded, 10)
	assert.InDelta(t, w+100, pw, 1e-6)
	assert.InDelta(t, h+100, ph, 1e-6)

	assert.False(t, PadPixels(NoRegion, 10, 50, 50).Valid())
	w, h = PixelSize(NoRegion, 3)
	assert.Zero(t, w)
	assert.Zero(t, h)
}
