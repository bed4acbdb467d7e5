package domain

import (
	"bytes"
	"encoding/json"
)

// Display fallbacks used by marker popups and tooltips
const (
	NoData  = "N/A"
	Unknown = "Unknown"
)

// Position is a WGS84 longitude/latitude pair
type Position struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Incident is one geocoded record of the incident snapshot.
// Categorical attributes may be empty; Position is nil when the record was never geocoded.
type Incident struct {
	ID        string
	Datetime  string
	Complaint string
	CallType  string
	District  string
	Address   string
	Position  *Position
}

// incidentWire mirrors the row shape served by /api/incidents
type incidentWire struct {
	ID        wireID   `json:"id,omitempty"`
	Datetime  string   `json:"datetime"`
	Complaint string   `json:"complaint"`
	Address   string   `json:"address"`
	District  string   `json:"district"`
	CallType  string   `json:"call_type"`
	Lon       *float64 `json:"lon"`
	Lat       *float64 `json:"lat"`
}

// wireID accepts both serial (numeric) and text ids
type wireID string

func (id *wireID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = wireID(n.String())
	return nil
}

// MarshalJSON flattens the position into nullable lon/lat keys
func (i Incident) MarshalJSON() ([]byte, error) {
	w := incidentWire{
		ID:        wireID(i.ID),
		Datetime:  i.Datetime,
		Complaint: i.Complaint,
		Address:   i.Address,
		District:  i.District,
		CallType:  i.CallType,
	}
	if i.Position != nil {
		lon, lat := i.Position.Lon, i.Position.Lat
		w.Lon, w.Lat = &lon, &lat
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the flat wire shape. A half-present coordinate pair is dropped.
func (i *Incident) UnmarshalJSON(data []byte) error {
	var w incidentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = Incident{
		ID:        string(w.ID),
		Datetime:  w.Datetime,
		Complaint: w.Complaint,
		CallType:  w.CallType,
		District:  w.District,
		Address:   w.Address,
		Position:  NewPosition(w.Lon, w.Lat),
	}
	return nil
}

// NewPosition returns a position only when both coordinates are present
func NewPosition(lon, lat *float64) *Position {
	if lon == nil || lat == nil {
		return nil
	}
	return &Position{Lon: *lon, Lat: *lat}
}

// HasPosition reports whether the incident can be placed on the map
func (i Incident) HasPosition() bool {
	return i.Position != nil
}

// Attribute returns the value of a categorical attribute
func (i Incident) Attribute(a Attribute) string {
	switch a {
	case AttrDistrict:
		return i.District
	case AttrComplaint:
		return i.Complaint
	case AttrCallType:
		return i.CallType
	}
	return ""
}

// IncidentDisplay is the popup/tooltip text of a marker
type IncidentDisplay struct {
	Tooltip   string `json:"tooltip"`
	ID        string `json:"id"`
	Datetime  string `json:"datetime"`
	District  string `json:"district"`
	Complaint string `json:"complaint"`
	CallType  string `json:"call_type"`
	Address   string `json:"address"`
}

// Display substitutes placeholders for absent fields
func (i Incident) Display() IncidentDisplay {
	tooltip := i.ID
	if tooltip == "" {
		tooltip = Unknown
	}
	return IncidentDisplay{
		Tooltip:   tooltip,
		ID:        orNoData(i.ID),
		Datetime:  orNoData(i.Datetime),
		District:  orNoData(i.District),
		Complaint: orNoData(i.Complaint),
		CallType:  orNoData(i.CallType),
		Address:   orNoData(i.Address),
	}
}

func orNoData(s string) string {
	if s == "" {
		return NoData
	}
	return s
}
