package heat

// Classification thresholds (°C) for zone assignment.
const (
	HighHeatLST   = 40.0
	MediumHeatLST = 34.0
)

// ClassifyZone maps a land surface temperature to a zone.
func ClassifyZone(lst float64) Zone {
	switch {
	case lst >= HighHeatLST:
		return ZoneHigh
	case lst >= MediumHeatLST:
		return ZoneMedium
	default:
		return ZoneLow
	}
}

// ClassifyVegetation maps an NDVI value to a vegetation class.
func ClassifyVegetation(ndvi float64) string {
	switch {
	case ndvi < 0.2:
		return "Water/Built-up"
	case ndvi < 0.4:
		return "Barren/Sparse"
	case ndvi < 0.6:
		return "Moderate Vegetation"
	default:
		return "Dense Vegetation"
	}
}

// ZoneColor returns the severity color for a zone.
func ZoneColor(z Zone) string {
	switch z {
	case ZoneHigh:
		return "#ef4444"
	case ZoneMedium:
		return "#f97316"
	case ZoneLow:
		return "#22c55e"
	}
	return "#9ca3af"
}

// Severity returns the severity label for a zone.
func Severity(z Zone) string {
	switch z {
	case ZoneHigh:
		return "High"
	case ZoneMedium:
		return "Medium"
	case ZoneLow:
		return "Low"
	}
	return "Unknown"
}

// Recommend returns a mitigation recommendation for a zone and NDVI value.
func Recommend(z Zone, ndvi float64) string {
	switch z {
	case ZoneHigh:
		if ndvi < 0.3 {
			return "Plant more trees and create green spaces urgently"
		}
		return "Improve ventilation and add water features"
	case ZoneMedium:
		if ndvi < 0.4 {
			return "Increase vegetation cover and add shade structures"
		}
		return "Maintain current green cover and monitor temperature"
	default:
		return "Maintain existing vegetation and urban planning"
	}
}
