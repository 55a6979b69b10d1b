package entities

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AddressResult is one geocoding match.
type AddressResult struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	State       string  `json:"state,omitempty"`
	County      string  `json:"county,omitempty"`
}

// Property is the parcel drawn by the user. Polygon is a ring of [lng, lat] pairs.
type Property struct {
	Polygon  [][2]float64 `json:"polygon"`
	Acreage  float64      `json:"acreage"`
	Centroid *Coordinates `json:"centroid,omitempty"`
}
