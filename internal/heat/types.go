// Package heat holds the urban heat island data model: measurement points,
// zone filtering, classification and the synthetic analysis generator.
package heat

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrMalformedPoint is returned when a point carries a non-finite or
// out-of-range numeric field.
var ErrMalformedPoint = errors.New("malformed point")

// Zone is a categorical heat classification.
type Zone int

const (
	ZoneHigh   Zone = 0
	ZoneMedium Zone = 1
	ZoneLow    Zone = 2
)

// Zones lists the known zones in display order.
var Zones = []Zone{ZoneHigh, ZoneMedium, ZoneLow}

// Label returns the human-readable zone name.
func (z Zone) Label() string {
	switch z {
	case ZoneHigh:
		return "High Heat"
	case ZoneMedium:
		return "Medium Heat"
	case ZoneLow:
		return "Low Heat"
	}
	return fmt.Sprintf("Zone %d", int(z))
}

// Point is one measurement record. Values are treated as immutable once
// produced; nothing in this module mutates a Point in place.
type Point struct {
	Lon            float64 `json:"lon" doc:"Longitude (WGS84)" example:"85.8245"`
	Lat            float64 `json:"lat" doc:"Latitude (WGS84)" example:"20.2961"`
	LST            float64 `json:"lst" doc:"Land surface temperature (°C)" example:"41.25"`
	UHIIntensity   float64 `json:"uhi_intensity" doc:"Difference from mean LST (°C)" example:"4.3"`
	NDVI           float64 `json:"ndvi" doc:"Normalized difference vegetation index" example:"0.214"`
	Severity       string  `json:"severity" doc:"Severity label" example:"High"`
	Zone           Zone    `json:"zone" doc:"Zone id (0 high, 1 medium, 2 low)" example:"0"`
	Vegetation     string  `json:"vegetation" doc:"Vegetation class" example:"Barren/Sparse"`
	Recommendation string  `json:"recommendation" doc:"Mitigation recommendation"`
	Color          string  `json:"color" doc:"Severity color (CSS)" example:"#ef4444"`
}

// Validate reports whether the numeric fields are usable for rendering.
func (p Point) Validate() error {
	fields := [...]struct {
		name string
		v    float64
	}{
		{"lon", p.Lon}, {"lat", p.Lat}, {"lst", p.LST},
		{"uhi_intensity", p.UHIIntensity}, {"ndvi", p.NDVI},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedPoint, f.name)
		}
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: lon %v out of range", ErrMalformedPoint, p.Lon)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: lat %v out of range", ErrMalformedPoint, p.Lat)
	}
	return nil
}

// Dataset is a complete, ordered snapshot of points. A nil *Dataset means
// the data has not been loaded yet.
type Dataset struct {
	points []Point
}

// NewDataset copies points into a new snapshot.
func NewDataset(points []Point) *Dataset {
	return &Dataset{points: slices.Clone(points)}
}

// Points returns a copy of the snapshot's points in order.
func (d *Dataset) Points() []Point {
	if d == nil {
		return nil
	}
	return slices.Clone(d.points)
}

// Len returns the number of points; zero for an absent dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.points)
}

// All iterates the points without copying.
func (d *Dataset) All(yield func(int, Point) bool) {
	if d == nil {
		return
	}
	for i, p := range d.points {
		if !yield(i, p) {
			return
		}
	}
}

// Validate checks every point and fails on the first malformed one.
func (d *Dataset) Validate() error {
	for i, p := range d.All {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}
