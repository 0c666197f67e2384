package domain

import (
	"time"

	"github.com/google/uuid"
)

// Favorite is one user's bookmark of one bus stop.
// Rows are immutable once created: the toggle flow either inserts or deletes,
// it never updates denormalized stop metadata in place.
//
// Lat and Lng are nil when the stop descriptor carried no coordinates.
// They are always both set or both nil (enforced by the service layer).
type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AtcoCode  string
	Name      string
	Street    string
	Locality  string
	Authority string
	Lines     string // lines serving the stop, serialized as text by the feed
	Lat       *float64
	Lng       *float64
	AddedAt   time.Time
}

// HasCoordinates reports whether the favorite carries a full (lat, lng) pair
// and is therefore eligible for the geo export.
func (f Favorite) HasCoordinates() bool {
	return f.Lat != nil && f.Lng != nil
}

// StopDescriptor is the enrichment payload sent with a toggle request.
// AtcoCode is the only required field; everything else is optional metadata
// copied onto the Favorite at creation time and ignored on removal.
type StopDescriptor struct {
	AtcoCode  string   `json:"atco"`
	Name      string   `json:"name"`
	Street    string   `json:"street"`
	Locality  string   `json:"locality"`
	Authority string   `json:"authority"`
	Lines     string   `json:"lines"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// ToggleAction is the outcome of a toggle call: the favorite was either
// created or deleted. There is no third state.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
)

// ToggleResult reports what a toggle did. Favorite is populated only when
// Action is ToggleAdded; on removal only the deleted row's ID is available.
type ToggleResult struct {
	Action     ToggleAction
	FavoriteID uuid.UUID
	Favorite   *Favorite
}
