package heat

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoints() []Point {
	return []Point{
		{Lon: 85.80, Lat: 20.28, LST: 42, Zone: ZoneHigh},
		{Lon: 85.83, Lat: 20.31, LST: 41, Zone: ZoneHigh},
		{Lon: 85.86, Lat: 20.25, LST: 35, Zone: ZoneMedium},
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	d := NewDataset(samplePoints())

	t.Run("all returns the full dataset", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, d.Points(), Filter(d, AllZones))
	})

	t.Run("single zone keeps order and membership", func(t *testing.T) {
		t.Parallel()
		got := Filter(d, OnlyZone(ZoneHigh))
		require.Len(t, got, 2)
		assert.Equal(t, samplePoints()[:2], got)
	})

	t.Run("filtered set is a subset for every zone", func(t *testing.T) {
		t.Parallel()
		all := d.Points()
		for _, f := range []ZoneFilter{AllZones, OnlyZone(ZoneHigh), OnlyZone(ZoneMedium), OnlyZone(ZoneLow), OnlyZone(7)} {
			for _, p := range Filter(d, f) {
				assert.Contains(t, all, p, "filter %s", f)
			}
		}
	})

	t.Run("absent dataset yields nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Filter(nil, AllZones))
	})
}

func TestParseZoneFilter(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want ZoneFilter
	}{
		{"", AllZones},
		{"all", AllZones},
		{"ALL", AllZones},
		{"0", OnlyZone(ZoneHigh)},
		{" 2 ", OnlyZone(ZoneLow)},
	} {
		got, err := ParseZoneFilter(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParseZoneFilter("north")
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestDatasetIsASnapshot(t *testing.T) {
	t.Parallel()

	src := samplePoints()
	d := NewDataset(src)
	src[0].Lon = 0

	assert.Equal(t, 85.80, d.Points()[0].Lon)

	out := d.Points()
	out[1].Lat = 0
	assert.Equal(t, 20.31, d.Points()[1].Lat)
}

func TestDatasetValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewDataset(samplePoints()).Validate())

	bad := samplePoints()
	bad[2].LST = math.NaN()
	err := NewDataset(bad).Validate()
	require.ErrorIs(t, err, ErrMalformedPoint)
	assert.Contains(t, err.Error(), "point 2")

	bad = samplePoints()
	bad[0].Lat = 95
	assert.ErrorIs(t, NewDataset(bad).Validate(), ErrMalformedPoint)
}

func TestValidateReportsFirstFieldInOrder(t *testing.T) {
	t.Parallel()

	p := Point{Lon: math.NaN(), Lat: 20, LST: math.Inf(1), NDVI: math.NaN()}
	for range 50 {
		err := p.Validate()
		require.ErrorIs(t, err, ErrMalformedPoint)
		assert.EqualError(t, err, ErrMalformedPoint.Error()+": lon is not finite")
	}

	p.Lon = 85
	assert.EqualError(t, p.Validate(), ErrMalformedPoint.Error()+": lst is not finite")
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	d := Generate(GenerateOptions{Points: 200, Seed: 42})
	require.Equal(t, 200, d.Len())
	assert.Equal(t, d.Points(), Generate(GenerateOptions{Points: 200, Seed: 42}).Points())

	var uhiSum float64
	for _, p := range d.All {
		assert.InDelta(t, DefaultCenterLat, p.Lat, DefaultSpread)
		assert.InDelta(t, DefaultCenterLon, p.Lon, DefaultSpread)
		assert.GreaterOrEqual(t, p.LST, 28.0)
		assert.LessOrEqual(t, p.LST, 45.0)
		assert.GreaterOrEqual(t, p.NDVI, 0.05)
		assert.LessOrEqual(t, p.NDVI, 0.85)
		assert.Equal(t, ClassifyZone(p.LST), p.Zone)
		assert.Equal(t, ZoneColor(p.Zone), p.Color)
		assert.Equal(t, Severity(p.Zone), p.Severity)
		assert.Equal(t, Recommend(p.Zone, p.NDVI), p.Recommendation)
		uhiSum += p.UHIIntensity
	}
	assert.InDelta(t, 0, uhiSum/200, 0.01)

	assert.Zero(t, Generate(GenerateOptions{}).Len())
}

func TestClassification(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ZoneHigh, ClassifyZone(40))
	assert.Equal(t, ZoneMedium, ClassifyZone(39.99))
	assert.Equal(t, ZoneMedium, ClassifyZone(34))
	assert.Equal(t, ZoneLow, ClassifyZone(33.9))

	assert.Equal(t, "Water/Built-up", ClassifyVegetation(0.1))
	assert.Equal(t, "Barren/Sparse", ClassifyVegetation(0.2))
	assert.Equal(t, "Moderate Vegetation", ClassifyVegetation(0.5))
	assert.Equal(t, "Dense Vegetation", ClassifyVegetation(0.6))

	assert.Equal(t, "#9ca3af", ZoneColor(9))
	assert.Equal(t, "Unknown", Severity(9))
	assert.Equal(t, "Plant more trees and create green spaces urgently", Recommend(ZoneHigh, 0.1))
	assert.Equal(t, "Maintain current green cover and monitor temperature", Recommend(ZoneMedium, 0.5))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	pts := samplePoints()
	pts[0].NDVI, pts[1].NDVI, pts[2].NDVI = 0.1, 0.2, 0.3
	pts[0].UHIIntensity, pts[1].UHIIntensity, pts[2].UHIIntensity = 2, 1, -3

	st := Summarize(NewDataset(pts), 30, now)
	assert.Equal(t, 3, st.TotalPoints)
	assert.Equal(t, 2, st.HighHeatZones)
	assert.Equal(t, 1, st.MediumHeatZones)
	assert.Equal(t, 0, st.LowHeatZones)
	assert.Equal(t, TemperatureStats{Min: 35, Max: 42, Avg: 39.3, Std: 3.1}, st.Temperature)
	assert.Equal(t, VegetationStats{Min: 0.1, Max: 0.3, Avg: 0.2}, st.Vegetation)
	assert.Equal(t, UHIStats{Min: -3, Max: 2, Avg: 0}, st.UHI)
	assert.Equal(t, DateRange{Start: "2026-09-15", End: "2026-10-15", Image: "2026-10-15"}, st.DateRange)

	empty := Summarize(nil, 7, now)
	assert.Zero(t, empty.TotalPoints)
	assert.Equal(t, "2026-10-08", empty.DateRange.Start)
}
