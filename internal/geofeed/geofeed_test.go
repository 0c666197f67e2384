package geofeed_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stopfinder/backend/internal/geofeed"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "busstops.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesFeatureCollection(t *testing.T) {
	path := writeDataset(t, `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"atco": "490008660N", "name": "Oxford Circus Stand N"},
				"geometry": {"type": "Point", "coordinates": [-0.1419, 51.5152]}
			}
		]
	}`)

	feed, err := geofeed.Load(path, discardLogger())
	require.NoError(t, err)

	fc := feed.Stops()
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "490008660N", fc.Features[0].Properties["atco"])
	// The geometry must survive untouched.
	assert.JSONEq(t, `{"type":"Point","coordinates":[-0.1419,51.5152]}`, string(fc.Features[0].Geometry))
}

func TestLoad_EmptyPathServesEmptyCollection(t *testing.T) {
	feed, err := geofeed.Load("", discardLogger())
	require.NoError(t, err)

	fc := feed.Stops()
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.NotNil(t, fc.Features)
	assert.Empty(t, fc.Features)
}

func TestLoad_MissingFileServesEmptyCollection(t *testing.T) {
	feed, err := geofeed.Load(filepath.Join(t.TempDir(), "nope.geojson"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, feed.Stops().Features)
}

func TestLoad_InvalidJSONFails(t *testing.T) {
	path := writeDataset(t, `{"type": "FeatureCollection", "features": [`)

	_, err := geofeed.Load(path, discardLogger())
	assert.Error(t, err)
}

func TestLoad_RejectsNonFeatureCollection(t *testing.T) {
	path := writeDataset(t, `{"type": "Feature", "properties": {}, "geometry": null}`)

	_, err := geofeed.Load(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a FeatureCollection")
}

func TestLoad_NullFeaturesNormalizedToEmptySlice(t *testing.T) {
	path := writeDataset(t, `{"type": "FeatureCollection", "features": null}`)

	feed, err := geofeed.Load(path, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, feed.Stops().Features)
}
