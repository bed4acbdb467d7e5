package boundary

// Style is the Leaflet path style of one boundary feature
type Style struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	FillColor   string  `json:"fillColor,omitempty"`
	FillOpacity float64 `json:"fillOpacity"`
}

var (
	// DefaultStyle applies when no district is selected
	DefaultStyle = Style{Color: "#ff6600", Weight: 2.5, FillColor: "#ffe0b3", FillOpacity: 0.3}

	// HighlightStyle marks the selected district
	HighlightStyle = Style{Color: "yellow", Weight: 3, FillColor: "#ffe0b3", FillOpacity: 0.3}

	// DimmedStyle applies to every other district while one is selected
	DimmedStyle = Style{Color: "red", Weight: 1, FillColor: "#ffe0b3", FillOpacity: 0.3}
)

// StyleFor picks the style of district name under the current selection
func StyleFor(name, selected string) Style {
	switch {
	case selected == "":
		return DefaultStyle
	case name == selected:
		return HighlightStyle
	default:
		return DimmedStyle
	}
}
