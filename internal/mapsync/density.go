package mapsync

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

// Fixed ids of the singleton density source and layer.
const (
	HeatSourceID = "uhi-heat"
	HeatLayerID  = "uhi-heat-layer"
)

// HeatMaxZoom caps the density layer; past it individual markers take over.
const HeatMaxZoom = 15

// Density manages the aggregated heatmap source and layer.
type Density struct {
	surf surface.Surface
}

// NewDensity creates a density manager drawing onto surf.
func NewDensity(surf surface.Surface) *Density {
	return &Density{surf: surf}
}

// Update removes the heatmap when visible is false. Otherwise, given a
// dataset, it replaces the source and layer wholesale. It does nothing
// while the surface is not ready or the dataset is absent.
func (d *Density) Update(all *heat.Dataset, visible bool) error {
	if !d.surf.IsReady() {
		return nil
	}
	if !visible {
		return d.remove()
	}
	if all == nil {
		return nil
	}
	if err := d.remove(); err != nil {
		return err
	}
	if err := d.surf.AddSource(surface.NewGeoJSONSource(HeatSourceID, HeatFeatures(all))); err != nil {
		return fmt.Errorf("add heat source: %w", err)
	}
	if err := d.surf.AddLayer(HeatLayer()); err != nil {
		return fmt.Errorf("add heat layer: %w", err)
	}
	return nil
}

// Visible reports whether both the source and the layer are present.
func (d *Density) Visible() bool {
	return d.surf.HasSource(HeatSourceID) && d.surf.HasLayer(HeatLayerID)
}

func (d *Density) remove() error {
	if d.surf.HasLayer(HeatLayerID) {
		if err := d.surf.RemoveLayer(HeatLayerID); err != nil {
			return fmt.Errorf("remove heat layer: %w", err)
		}
	}
	if d.surf.HasSource(HeatSourceID) {
		if err := d.surf.RemoveSource(HeatSourceID); err != nil {
			return fmt.Errorf("remove heat source: %w", err)
		}
	}
	return nil
}

// HeatFeatures builds the density source: one point feature per dataset
// point carrying intensity (|uhi|) and temperature (lst).
func HeatFeatures(all *heat.Dataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range all.All {
		f := geojson.NewFeature(orb.Point{p.Lon, p.Lat})
		f.Properties["intensity"] = math.Abs(p.UHIIntensity)
		f.Properties["temperature"] = p.LST
		fc.Append(f)
	}
	return fc
}

// HeatLayer returns the density layer with its fixed visual encoding.
func HeatLayer() surface.Layer {
	return surface.Layer{
		ID:      HeatLayerID,
		Type:    "heatmap",
		Source:  HeatSourceID,
		MaxZoom: HeatMaxZoom,
		Paint: map[string]any{
			"heatmap-weight": interpolate([]any{"get", "temperature"},
				25, 0,
				45, 1),
			"heatmap-intensity": interpolate([]any{"zoom"},
				0, 1,
				HeatMaxZoom, 3),
			"heatmap-radius": interpolate([]any{"zoom"},
				0, 2,
				HeatMaxZoom, 30),
			"heatmap-color": interpolate([]any{"heatmap-density"},
				0, "rgba(33,102,172,0)",
				0.25, "rgb(0,255,255)",
				0.5, "rgb(255,255,0)",
				0.75, "rgb(255,165,0)",
				1, "rgb(255,0,0)"),
			"heatmap-opacity": 0.8,
		},
	}
}

// interpolate builds a linear MapLibre interpolate expression.
func interpolate(input []any, stops ...any) []any {
	return append([]any{"interpolate", []any{"linear"}, input}, stops...)
}
