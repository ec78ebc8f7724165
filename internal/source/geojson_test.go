package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "t1", "geometry": {"type": "Point", "coordinates": [-80.19, 25.77]}, "properties": {"pop": 120, "name": "Downtown"}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}, "properties": {"pop": 45.5}},
    {"type": "Feature", "geometry": null, "properties": null}
  ]
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseGeoJSON(t *testing.T) {
	m, err := ParseGeoJSON([]byte(sampleGeoJSON))
	require.NoError(t, err)

	fs, err := m.Features(context.Background())
	require.NoError(t, err)
	require.Len(t, fs, 3)

	assert.Equal(t, "t1", fs[0].ID)
	pt, ok := fs[0].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{-80.19, 25.77}, pt.FlatCoords())
	assert.Equal(t, "Downtown", fs[0].Attributes["name"])

	assert.Equal(t, "2", fs[1].ID)
	_, ok = fs[1].Geometry.(*geom.Polygon)
	assert.True(t, ok)

	assert.Nil(t, fs[2].Geometry)
	assert.NotNil(t, fs[2].Attributes)
}

func TestParseGeoJSON_Invalid(t *testing.T) {
	_, err := ParseGeoJSON([]byte(`{"type": "FeatureCollection", "features": [`))
	assert.ErrorContains(t, err, "decode geojson")
}
