package surface

import (
	"github.com/paulmach/orb"
)

// Op is a surface command operation.
type Op string

const (
	OpCreate       Op = "create"
	OpAddMarker    Op = "addMarker"
	OpRemoveMarker Op = "removeMarker"
	OpAddSource    Op = "addSource"
	OpRemoveSource Op = "removeSource"
	OpAddLayer     Op = "addLayer"
	OpRemoveLayer  Op = "removeLayer"
	OpFitBounds    Op = "fitBounds"
	OpDestroy      Op = "destroy"
)

// Command is one surface mutation as replayed by a browser client.
type Command struct {
	Op     Op          `json:"op"`
	ID     string      `json:"id,omitempty"`
	Config *Config     `json:"config,omitempty"`
	Marker *Marker     `json:"marker,omitempty"`
	Source *Source     `json:"source,omitempty"`
	Layer  *Layer      `json:"layer,omitempty"`
	Fit    *fitPayload `json:"fit,omitempty"`
}

type fitPayload struct {
	Bounds   [2]orb.Point `json:"bounds"`
	Padding  int          `json:"padding"`
	MaxZoom  float64      `json:"maxZoom"`
	Duration int64        `json:"duration"`
}

func fitCommand(f Fit) Command {
	return Command{Op: OpFitBounds, Fit: &fitPayload{
		Bounds:   [2]orb.Point{f.Bounds.Min, f.Bounds.Max},
		Padding:  f.Options.Padding,
		MaxZoom:  f.Options.MaxZoom,
		Duration: f.Options.Duration.Milliseconds(),
	}}
}
