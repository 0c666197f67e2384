// Package geofeed serves the static bus-stop dataset. The feed is an external
// read-only GeoJSON file; it is parsed only far enough to confirm it is a
// FeatureCollection and is otherwise passed through untouched.
package geofeed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/stopfinder/backend/internal/domain"
)

// Feed holds the bus-stop FeatureCollection loaded at startup.
// The dataset never changes while the server runs, so a plain value with no
// locking is enough.
type Feed struct {
	collection domain.FeatureCollection
}

// Load reads the GeoJSON file at path. A missing or empty path yields an
// empty collection rather than an error, so the app degrades to a map with
// no stops instead of refusing to start.
func Load(path string, log *slog.Logger) (*Feed, error) {
	if path == "" {
		log.Info("no bus stop dataset configured, serving empty collection")
		return &Feed{collection: domain.NewFeatureCollection()}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("bus stop dataset not found, serving empty collection", "path", path)
			return &Feed{collection: domain.NewFeatureCollection()}, nil
		}
		return nil, fmt.Errorf("geofeed.Load: %w", err)
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("geofeed.Load: parse %s: %w", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geofeed.Load: %s: expected a FeatureCollection, got %q", path, fc.Type)
	}
	if fc.Features == nil {
		fc.Features = []domain.Feature{}
	}

	log.Info("bus stop dataset loaded", "path", path, "features", len(fc.Features))
	return &Feed{collection: fc}, nil
}

// Stops returns the loaded FeatureCollection.
func (f *Feed) Stops() domain.FeatureCollection {
	return f.collection
}
