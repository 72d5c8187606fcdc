package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-uhi/internal/db"
	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	_, api := humatest.New(t)

	session, err := mapsync.NewSession(surface.DefaultConfig("test-token"), surface.NewBus(), mapsync.Options{})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	store, err := db.Open()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := &Services{Session: session, Store: store, Selection: &Selection{}}
	require.NoError(t, session.SetOnPointClick(func(p heat.Point) { svc.Selection.Set(p) }))

	RegisterRoutes(api, svc)
	return api, svc
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func fixture() []heat.Point {
	return []heat.Point{
		{Lon: 85.80, Lat: 20.28, LST: 42, UHIIntensity: 4, NDVI: 0.2, Zone: heat.ZoneHigh, Severity: "High", Color: "#ef4444"},
		{Lon: 85.83, Lat: 20.30, LST: 36, UHIIntensity: -2, NDVI: 0.4, Zone: heat.ZoneMedium, Severity: "Medium", Color: "#f59e0b"},
		{Lon: 85.86, Lat: 20.33, LST: 30, UHIIntensity: -8, NDVI: 0.7, Zone: heat.ZoneLow, Severity: "Low", Color: "#10b981"},
	}
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[HealthBody](t, resp.Body.Bytes())
	assert.Equal(t, "ok", body.Status)

	resp = api.Get("/api/analyze/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "online", decode[AnalyzeHealthBody](t, resp.Body.Bytes()).Status)
}

func TestAnalyzeUHI(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Get("/api/analyze/uhi?points=40&days=7&seed=3")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[AnalyzeBody](t, resp.Body.Bytes())
	assert.True(t, body.Success)
	assert.Len(t, body.Data, 40)
	assert.Equal(t, 40, body.Statistics.TotalPoints)
	assert.Equal(t, 40, body.Statistics.HighHeatZones+body.Statistics.MediumHeatZones+body.Statistics.LowHeatZones)

	// analysis alone never touches the map
	assert.False(t, svc.Session.State().DatasetLoaded)
}

func TestDatasetBeforeAndAfterReady(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	st := decode[mapsync.State](t, resp.Body.Bytes())
	assert.True(t, st.DatasetLoaded)
	assert.Equal(t, 3, st.Points)
	assert.Zero(t, st.Markers)

	resp = api.Post("/api/v1/map/ready")
	require.Equal(t, http.StatusOK, resp.Code)
	st = decode[mapsync.State](t, resp.Body.Bytes())
	assert.True(t, st.Ready)
	assert.Equal(t, 3, st.Markers)
	require.NotNil(t, st.Bounds)

	resp = api.Get("/api/v1/map/markers")
	require.Equal(t, http.StatusOK, resp.Code)
	markers := decode[[]surface.Marker](t, resp.Body.Bytes())
	require.Len(t, markers, 3)
	assert.Equal(t, "#ef4444", markers[0].Color)
}

func TestDatasetMalformedRejected(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())

	resp := api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})
	require.Equal(t, http.StatusOK, resp.Code)

	bad := fixture()
	bad[1].Lat = 120
	resp = api.Put("/api/v1/map/dataset", map[string]any{"points": bad})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	st := svc.Session.State()
	assert.Equal(t, 3, st.Markers)
	assert.Equal(t, 3, st.Points)
}

func TestDeleteDataset(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())

	api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})
	resp := api.Delete("/api/v1/map/dataset")
	require.Equal(t, http.StatusOK, resp.Code)

	// an absent dataset leaves the existing markers alone
	st := decode[mapsync.State](t, resp.Body.Bytes())
	assert.False(t, st.DatasetLoaded)
	assert.Equal(t, 3, st.Markers)

	// the analytics snapshot follows the map back to empty
	resp = api.Get("/api/v1/zones")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]db.ZoneSummary](t, resp.Body.Bytes()))
}

func TestConcurrentLoadsKeepStoreInStep(t *testing.T) {
	_, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())
	ctx := context.Background()

	var wg sync.WaitGroup
	for n := 1; n <= 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := heat.Generate(heat.GenerateOptions{Points: n * 5, Seed: uint64(n)})
			assert.NoError(t, svc.LoadDataset(ctx, d))
		}()
	}
	wg.Wait()

	_, rows, err := svc.Store.Query(ctx, "SELECT count(*) AS n FROM points")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, svc.Session.State().Points, rows[0]["n"])
}

func TestFilter(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())
	api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})

	resp := api.Put("/api/v1/map/filter", map[string]any{"zone": "0"})
	require.Equal(t, http.StatusOK, resp.Code)
	st := decode[mapsync.State](t, resp.Body.Bytes())
	assert.Equal(t, "0", st.Zone)
	assert.Equal(t, 1, st.Filtered)
	assert.Equal(t, 1, st.Markers)

	resp = api.Put("/api/v1/map/filter", map[string]any{"zone": "hot"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = api.Put("/api/v1/map/filter", map[string]any{"zone": "all"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 3, decode[mapsync.State](t, resp.Body.Bytes()).Markers)
}

func TestHeatmapToggle(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())
	api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})

	resp := api.Put("/api/v1/map/heatmap", map[string]any{"visible": true})
	require.Equal(t, http.StatusOK, resp.Code)
	st := decode[mapsync.State](t, resp.Body.Bytes())
	assert.True(t, st.Heatmap)
	assert.Contains(t, st.Sources, mapsync.HeatSourceID)
	assert.Contains(t, st.Layers, mapsync.HeatLayerID)

	resp = api.Put("/api/v1/map/heatmap", map[string]any{"visible": false})
	require.Equal(t, http.StatusOK, resp.Code)
	st = decode[mapsync.State](t, resp.Body.Bytes())
	assert.False(t, st.Heatmap)
	assert.NotContains(t, st.Sources, mapsync.HeatSourceID)
}

func TestGenerate(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())

	resp := api.Post("/api/v1/map/generate", map[string]any{"points": 25, "days": 10, "seed": 9})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[GenerateBody](t, resp.Body.Bytes())
	assert.Equal(t, 25, body.Statistics.TotalPoints)
	assert.Equal(t, 25, body.State.Markers)

	resp = api.Get("/api/v1/zones")
	require.Equal(t, http.StatusOK, resp.Code)
	zones := decode[[]db.ZoneSummary](t, resp.Body.Bytes())
	total := 0
	for _, z := range zones {
		total += z.Count
	}
	assert.Equal(t, 25, total)
}

func TestQueryAndTables(t *testing.T) {
	api, _ := newTestAPI(t)
	api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})

	resp := api.Get("/api/v1/tables")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "points")

	resp = api.Post("/api/v1/query", map[string]any{"query": "SELECT count(*) AS n FROM points"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out struct {
		Columns []string `json:"columns"`
		Count   int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, []string{"n"}, out.Columns)
	assert.Equal(t, 1, out.Count)

	resp = api.Post("/api/v1/query", map[string]any{"query": "SELEC nonsense"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSelection(t *testing.T) {
	api, svc := newTestAPI(t)
	require.NoError(t, svc.Session.MarkReady())
	api.Put("/api/v1/map/dataset", map[string]any{"points": fixture()})

	resp := api.Get("/api/v1/map/selection")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[SelectionBody](t, resp.Body.Bytes()).Selected)

	ids := svc.Session.MarkerIDs()
	require.Len(t, ids, 3)
	_, ok := svc.Session.Click(ids[2])
	require.True(t, ok)

	resp = api.Get("/api/v1/map/selection")
	body := decode[SelectionBody](t, resp.Body.Bytes())
	require.True(t, body.Selected)
	assert.Equal(t, heat.ZoneLow, body.Point.Zone)
}

func TestSessionClosed(t *testing.T) {
	api, svc := newTestAPI(t)
	svc.Session.Close()

	resp := api.Put("/api/v1/map/heatmap", map[string]any{"visible": true})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestInfo(t *testing.T) {
	_, api := humatest.New(t)
	NewInfoHandler("rebuild", false).RegisterRoutes(api)

	resp := api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	info := decode[InfoBody](t, resp.Body.Bytes())
	assert.Equal(t, "plat-uhi", info.Name)
	assert.Equal(t, "rebuild", info.Strategy)
	assert.NotContains(t, info.Features, "duckdb")
}

func TestLinkHeaders(t *testing.T) {
	config := huma.DefaultConfig("test", "1.0.0")
	config.Transformers = append(config.Transformers, LinkTransformer())
	_, api := humatest.New(t, config)
	NewAPIHandler(&Services{}).RegisterHealth(api)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	links := resp.Header().Values("Link")
	assert.Contains(t, links, `</api/v1/info>; rel="info"`)
	assert.Contains(t, links, `</api/v1/map/state>; rel="map"`)
}
