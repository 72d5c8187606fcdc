// Package live contains Datastar SSE handlers for the map page.
package live

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/humastar"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
	"github.com/joeblew999/plat-uhi/internal/surface"
	"github.com/joeblew999/plat-uhi/internal/templates"
)

// MapHandler streams surface commands and page fragments to the browser.
type MapHandler struct {
	session  *mapsync.Session
	bus      *surface.Bus
	renderer *templates.Renderer
	log      *slog.Logger
}

// NewMapHandler creates a new map SSE handler.
func NewMapHandler(session *mapsync.Session, bus *surface.Bus, renderer *templates.Renderer, log *slog.Logger) *MapHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MapHandler{session: session, bus: bus, renderer: renderer, log: log}
}

func (h *MapHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/map/stream", h.Stream, huma.OperationTags("live"))
	huma.Get(api, "/api/v1/map/zones", h.Zones, huma.OperationTags("live"))
	huma.Post(api, "/api/v1/map/filter", h.Filter, huma.OperationTags("live"))
	huma.Post(api, "/api/v1/map/heatmap", h.Heatmap, huma.OperationTags("live"))
	huma.Post(api, "/api/v1/map/markers/{id}/click", h.Click, huma.OperationTags("live"))
}

// Stream replays the surface as it stands, then forwards live commands
// until the client goes away or the surface is destroyed.
func (h *MapHandler) Stream(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return humastar.Stream(func(sse humastar.SSE) {
		snapshot, ch := h.session.Surface().Attach(h.bus)
		defer h.bus.Unsubscribe(ch)

		for _, cmd := range snapshot {
			if err := sse.Command(cmd); err != nil || cmd.Op == surface.OpDestroy {
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case cmd, ok := <-ch:
				if !ok {
					// fell behind the bus; the client reconnects for a fresh snapshot
					h.log.Info("map stream dropped a lagging client")
					return
				}
				if err := sse.Command(cmd); err != nil {
					h.log.Debug("map stream closed", "error", err)
					return
				}
				if cmd.Op == surface.OpDestroy {
					return
				}
			}
		}
	}), nil
}

// Zones patches the zone select with per-zone counts.
func (h *MapHandler) Zones(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return humastar.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderZoneSelect(), "#zone-select")
	}), nil
}

// Filter applies the zone signal and refreshes the zone select.
func (h *MapHandler) Filter(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	zone, err := heat.ParseZoneFilter(signals.String("zone"))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return humastar.Stream(func(sse humastar.SSE) {
		if err := h.session.SetZone(zone); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.renderZoneSelect(), "#zone-select")
	}), nil
}

// Heatmap applies the showHeatmap signal.
func (h *MapHandler) Heatmap(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if !signals.Has("showHeatmap") {
		return nil, huma.Error400BadRequest("showHeatmap signal is required")
	}
	visible := signals.Bool("showHeatmap")
	return humastar.Stream(func(sse humastar.SSE) {
		if err := h.session.SetHeatmap(visible); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(map[string]any{"showHeatmap": visible})
		if visible {
			sse.Success("Heatmap shown")
		} else {
			sse.Success("Heatmap hidden")
		}
	}), nil
}

type ClickInput struct {
	ID string `path:"id" doc:"Marker id"`
}

// Click dispatches a marker click and patches the point detail panel.
func (h *MapHandler) Click(ctx context.Context, input *ClickInput) (*huma.StreamResponse, error) {
	return humastar.Stream(func(sse humastar.SSE) {
		p, ok := h.session.Click(input.ID)
		if !ok {
			if html, err := h.renderer.Render("empty-state", map[string]any{
				"Title":   "No point selected",
				"Message": "The marker is no longer on the map.",
			}); err == nil {
				sse.Patch(html, "#point-detail")
			}
			sse.Error("Unknown marker: " + input.ID)
			return
		}
		html, err := h.renderer.Render("point-detail", p)
		if err != nil {
			h.log.Error("render point detail", "error", err)
			sse.Error("Failed to render point detail")
			return
		}
		sse.Patch(html, "#point-detail")
		sse.DispatchCustomEvent("point-selected", map[string]any{
			"id":   input.ID,
			"zone": int(p.Zone),
			"lst":  p.LST,
		})
	}), nil
}

type zoneOption struct {
	Value string
	Label string
	Count int
}

func (h *MapHandler) renderZoneSelect() string {
	props := h.session.Props()
	counts := make(map[heat.Zone]int, len(heat.Zones))
	for _, p := range props.Data.All {
		counts[p.Zone]++
	}
	opts := make([]zoneOption, 0, len(heat.Zones))
	for _, z := range heat.Zones {
		opts = append(opts, zoneOption{
			Value: heat.OnlyZone(z).String(),
			Label: z.Label(),
			Count: counts[z],
		})
	}
	html, err := h.renderer.Render("zone-select", map[string]any{
		"Selected": props.Zone.String(),
		"Total":    props.Data.Len(),
		"Zones":    opts,
	})
	if err != nil {
		h.log.Error("render zone select", "error", err)
		return ""
	}
	return html
}
