package heat

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics summarizes a dataset the way the analysis endpoint reports it.
type Statistics struct {
	TotalPoints     int              `json:"total_points"`
	HighHeatZones   int              `json:"high_heat_zones"`
	MediumHeatZones int              `json:"medium_heat_zones"`
	LowHeatZones    int              `json:"low_heat_zones"`
	Temperature     TemperatureStats `json:"temperature"`
	Vegetation      VegetationStats  `json:"vegetation"`
	UHI             UHIStats         `json:"uhi"`
	DateRange       DateRange        `json:"date_range"`
}

type TemperatureStats struct {
	Min float64 `json:"min_lst"`
	Max float64 `json:"max_lst"`
	Avg float64 `json:"avg_lst"`
	Std float64 `json:"std_lst"`
}

type VegetationStats struct {
	Min float64 `json:"min_ndvi"`
	Max float64 `json:"max_ndvi"`
	Avg float64 `json:"avg_ndvi"`
}

type UHIStats struct {
	Min float64 `json:"min_intensity"`
	Max float64 `json:"max_intensity"`
	Avg float64 `json:"avg_intensity"`
}

type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
	Image string `json:"image_date"`
}

// Summarize computes statistics over d. The date range ends at now and
// spans the given number of days.
func Summarize(d *Dataset, days int, now time.Time) Statistics {
	const layout = "2006-01-02"
	st := Statistics{
		TotalPoints: d.Len(),
		DateRange: DateRange{
			Start: now.AddDate(0, 0, -days).Format(layout),
			End:   now.Format(layout),
			Image: now.Format(layout),
		},
	}
	if d.Len() == 0 {
		return st
	}

	n := d.Len()
	lst, ndvi, uhi := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, p := range d.All {
		switch p.Zone {
		case ZoneHigh:
			st.HighHeatZones++
		case ZoneMedium:
			st.MediumHeatZones++
		case ZoneLow:
			st.LowHeatZones++
		}
		lst[i], ndvi[i], uhi[i] = p.LST, p.NDVI, p.UHIIntensity
	}

	// population standard deviation
	mean, variance := stat.PopMeanVariance(lst, nil)
	st.Temperature = TemperatureStats{
		Min: round(floats.Min(lst), 1),
		Max: round(floats.Max(lst), 1),
		Avg: round(mean, 1),
		Std: round(math.Sqrt(variance), 1),
	}
	st.Vegetation = VegetationStats{
		Min: round(floats.Min(ndvi), 3),
		Max: round(floats.Max(ndvi), 3),
		Avg: round(stat.Mean(ndvi, nil), 3),
	}
	st.UHI = UHIStats{
		Min: round(floats.Min(uhi), 1),
		Max: round(floats.Max(uhi), 1),
		Avg: round(stat.Mean(uhi, nil), 1),
	}
	return st
}
