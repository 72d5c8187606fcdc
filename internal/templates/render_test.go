package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-uhi/internal/heat"
)

func TestBuiltinFragments(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render("point-detail", heat.Point{
		Lat: 20.29612, Lon: 85.82451, LST: 41.26, UHIIntensity: 4.35, NDVI: 0.2146,
		Severity: "High", Vegetation: "Barren/Sparse", Recommendation: "<b>shade</b>", Color: "#ef4444",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "20.2961, 85.8245")
	assert.Contains(t, html, "41.3°C")
	assert.Contains(t, html, "0.215")
	assert.Contains(t, html, "&lt;b&gt;shade&lt;/b&gt;")

	html, err = r.Render("zone-select", map[string]any{
		"Selected": "1",
		"Total":    5,
		"Zones": []map[string]any{
			{"Value": "0", "Label": "High Heat", "Count": 2},
			{"Value": "1", "Label": "Medium Heat", "Count": 3},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, html, `All Zones (5)`)
	assert.Contains(t, html, `<option value="1" selected>Medium Heat (3)</option>`)
	assert.NotContains(t, html, `value="0" selected`)
}

func TestNewFS(t *testing.T) {
	r, err := NewFS(fstest.MapFS{
		"x.html": {Data: []byte(`{{define "empty-state"}}nothing: {{.Title}} at {{fixed 2 .Lat}}{{end}}`)},
	})
	require.NoError(t, err)

	html, err := r.Render("empty-state", map[string]any{"Title": "here", "Lat": 20.29612})
	require.NoError(t, err)
	assert.Equal(t, "nothing: here at 20.30", html)

	_, err = r.Render("point-detail", nil)
	assert.Error(t, err)
}
