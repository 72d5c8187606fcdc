// Package surface is the rendering-surface adapter. It defines the
// capability contract the synchronization engine draws onto and ships a
// Map implementation that keeps authoritative surface state and publishes
// every mutation as a Command for browser clients to replay.
package surface

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrMissingAccessToken is fatal: the surface cannot be created.
	ErrMissingAccessToken = errors.New("surface: missing access token")
	ErrNotReady           = errors.New("surface: not ready")
	ErrDestroyed          = errors.New("surface: destroyed")
	ErrDuplicateID        = errors.New("surface: duplicate id")
	ErrUnknownID          = errors.New("surface: unknown id")
	ErrSourceInUse        = errors.New("surface: source in use by layer")
)

// Surface is the capability contract the engine needs from a map.
// Every mutating call fails with ErrNotReady before the ready signal and
// with ErrDestroyed after teardown.
type Surface interface {
	IsReady() bool

	AddMarker(m Marker) error
	RemoveMarker(id string) error

	AddSource(s Source) error
	RemoveSource(id string) error
	HasSource(id string) bool

	AddLayer(l Layer) error
	RemoveLayer(id string) error
	HasLayer(id string) bool

	FitBounds(b orb.Bound, opts FitOptions) error
}

// Marker is a point marker with custom element styling and a popup.
type Marker struct {
	ID       string    `json:"id"`
	Position orb.Point `json:"position"`
	Size     float64   `json:"size"`
	Color    string    `json:"color"`
	Popup    string    `json:"popup"`
}

// Source is a GeoJSON geometry source.
type Source struct {
	ID   string                     `json:"id"`
	Type string                     `json:"type"`
	Data *geojson.FeatureCollection `json:"data"`
}

// NewGeoJSONSource wraps a feature collection as a source.
func NewGeoJSONSource(id string, fc *geojson.FeatureCollection) Source {
	return Source{ID: id, Type: "geojson", Data: fc}
}

// Layer is a styled layer drawing one source. Paint values use the
// MapLibre/Mapbox expression language.
type Layer struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Source  string         `json:"source"`
	MaxZoom float64        `json:"maxzoom,omitempty"`
	Paint   map[string]any `json:"paint,omitempty"`
}

// FitOptions constrains an animated viewport fit.
type FitOptions struct {
	Padding  int           `json:"padding"`
	MaxZoom  float64       `json:"maxZoom"`
	Duration time.Duration `json:"-"`
}

// Fit records the last viewport fit requested of a surface.
type Fit struct {
	Bounds  orb.Bound
	Options FitOptions
}
