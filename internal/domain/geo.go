package domain

import "encoding/json"

// Feature is a single GeoJSON feature: a property bag plus a geometry.
// Geometry stays a raw message so features unmarshalled from the bus-stop
// feed round-trip unchanged.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// FeatureCollection is the standard GeoJSON container returned by the geo
// export and the static bus-stop feed.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// PointGeometry is the geometry payload for a located favorite.
// Coordinates follow the GeoJSON convention: [lng, lat].
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewFeatureCollection returns an empty collection with a non-nil feature
// slice so it serializes as "features": [] rather than null.
func NewFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}
