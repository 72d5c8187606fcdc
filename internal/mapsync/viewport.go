package mapsync

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

// Default viewport fit constraints.
const (
	DefaultFitPadding  = 50
	DefaultFitMaxZoom  = 15
	DefaultFitDuration = time.Second
)

// Viewport frames the surface around the active points.
type Viewport struct {
	surf surface.Surface
	opts surface.FitOptions
}

// NewViewport creates a fitter; zero options take the defaults.
func NewViewport(surf surface.Surface, opts surface.FitOptions) *Viewport {
	if opts.Padding == 0 {
		opts.Padding = DefaultFitPadding
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = DefaultFitMaxZoom
	}
	if opts.Duration == 0 {
		opts.Duration = DefaultFitDuration
	}
	return &Viewport{surf: surf, opts: opts}
}

// Fit requests the surface contain every point. An empty set, or a surface
// that is not ready, leaves the viewport unchanged and reports false.
func (v *Viewport) Fit(points []heat.Point) (orb.Bound, bool, error) {
	b, ok := Bounds(points)
	if !ok || !v.surf.IsReady() {
		return orb.Bound{}, false, nil
	}
	if err := v.surf.FitBounds(b, v.opts); err != nil {
		return orb.Bound{}, false, fmt.Errorf("fit bounds: %w", err)
	}
	return b, true, nil
}

// Bounds returns the minimal bound covering points.
func Bounds(points []heat.Point) (orb.Bound, bool) {
	if len(points) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Lon, p.Lat}
	}
	return mp.Bound(), true
}
