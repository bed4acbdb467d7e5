// Package boundary loads the district boundary layer and styles it for highlighting.
//
// A district's identity is read from one configurable feature property and is
// compared verbatim with the incident district values offered in the filter dropdown,
// so tooltip text, highlight matching and filtering all agree on the same name.
package boundary

import (
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/smartcity/incidentmap/internal/domain"
	"github.com/smartcity/incidentmap/internal/geo"
)

// DefaultNameProperty is the district-name key of the GADM level-2 files the map ships with
const DefaultNameProperty = "NAME_2"

// District is one named boundary feature
type District struct {
	Name    string
	Feature *geojson.Feature
	Region  geo.Region
}

// Layer is an immutable set of district boundaries
type Layer struct {
	nameProperty string
	districts    []District
	byName       map[string]int
}

// Load reads a GeoJSON FeatureCollection from disk
func Load(path, nameProperty string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boundary: failed to read %s: %w", path, err)
	}
	return Parse(data, nameProperty)
}

// Parse decodes a GeoJSON FeatureCollection
func Parse(data []byte, nameProperty string) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("boundary: failed to decode feature collection: %w", err)
	}
	return NewLayer(fc, nameProperty), nil
}

// NewLayer indexes the features of fc by district name. The first feature wins on duplicates.
func NewLayer(fc *geojson.FeatureCollection, nameProperty string) *Layer {
	if nameProperty == "" {
		nameProperty = DefaultNameProperty
	}
	l := &Layer{nameProperty: nameProperty, byName: make(map[string]int)}
	if fc == nil {
		return l
	}
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		d := District{Name: featureName(f, nameProperty), Feature: f, Region: geo.NoRegion}
		if f.Geometry != nil {
			d.Region = geo.NewRegion(f.Geometry.Bound())
		}
		if _, dup := l.byName[d.Name]; !dup && d.Name != "" {
			l.byName[d.Name] = len(l.districts)
		}
		l.districts = append(l.districts, d)
	}
	return l
}

// Empty returns a layer with no districts
func Empty() *Layer {
	return NewLayer(nil, "")
}

func featureName(f *geojson.Feature, nameProperty string) string {
	if v := f.Properties.MustString(nameProperty, ""); v != "" {
		return v
	}
	return f.Properties.MustString("name", "")
}

// Len is the number of features
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.districts)
}

// Names returns the sorted district names
func (l *Layer) Names() []string {
	names := make([]string, 0, l.Len())
	if l == nil {
		return names
	}
	for name := range l.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the geometry bounds of a district
func (l *Layer) Lookup(district string) (geo.Region, bool) {
	if l == nil || district == "" {
		return geo.NoRegion, false
	}
	i, ok := l.byName[district]
	if !ok {
		return geo.NoRegion, false
	}
	r := l.districts[i].Region
	return r, r.Valid()
}

// Styled returns a copy of the layer whose features carry tooltip, highlight and
// style properties for the given selection ("" means no district selected).
func (l *Layer) Styled(selected string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if l == nil {
		return fc
	}
	for _, d := range l.districts {
		f := geojson.NewFeature(d.Feature.Geometry)
		f.ID = d.Feature.ID
		f.Properties = d.Feature.Properties.Clone()
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		tooltip := d.Name
		if tooltip == "" {
			tooltip = domain.Unknown
		}
		f.Properties["tooltip"] = tooltip
		f.Properties["highlighted"] = selected != "" && d.Name == selected
		f.Properties["style"] = StyleFor(d.Name, selected)
		fc.Append(f)
	}
	return fc
}
