package api

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

type DatasetInput struct {
	Body struct {
		Points []heat.Point `json:"points" required:"true" doc:"Complete dataset snapshot"`
	}
}

type GenerateInput struct {
	Body struct {
		Points int    `json:"points,omitempty" default:"100" minimum:"1" maximum:"10000" doc:"Number of points to generate"`
		Days   int    `json:"days,omitempty" default:"30" minimum:"1" maximum:"365" doc:"Analysis window in days"`
		Seed   uint64 `json:"seed,omitempty" doc:"Random seed (0 for random)"`
	}
}

type GenerateBody struct {
	State      mapsync.State   `json:"state" doc:"Session state after loading"`
	Statistics heat.Statistics `json:"statistics" doc:"Summary statistics"`
}

type FilterInput struct {
	Body struct {
		Zone string `json:"zone" required:"true" doc:"Zone id, or 'all' for no filter" example:"all"`
	}
}

type HeatmapInput struct {
	Body struct {
		Visible bool `json:"visible" doc:"Show the density heatmap"`
	}
}

type StateOutput struct {
	Body mapsync.State
}

type MarkersOutput struct {
	Body []surface.Marker
}

type SelectionBody struct {
	Selected bool        `json:"selected" doc:"Whether a point has been clicked"`
	Point    *heat.Point `json:"point,omitempty" doc:"Most recently clicked point"`
}

// RegisterMap registers the map session routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Put(api, "/api/v1/map/dataset", h.PutDataset, huma.OperationTags("map"))
	huma.Delete(api, "/api/v1/map/dataset", h.DeleteDataset, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/generate", h.GenerateDataset, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/map/filter", h.PutFilter, huma.OperationTags("map"))
	huma.Put(api, "/api/v1/map/heatmap", h.PutHeatmap, huma.OperationTags("map"))
	huma.Post(api, "/api/v1/map/ready", h.PostReady, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/state", h.GetState, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/markers", h.GetMarkers, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/map/selection", h.GetSelection, huma.OperationTags("map"))
}

// LoadDataset validates d and hands it to the session and the analytics
// store. A malformed point fails the whole update. A nil d returns both to
// the absent state. Loads are serialized so the store always holds the
// snapshot the map shows.
func (s *Services) LoadDataset(ctx context.Context, d *heat.Dataset) error {
	if err := d.Validate(); err != nil {
		return huma.Error422UnprocessableEntity(err.Error())
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := s.Session.SetData(d); err != nil {
		return sessionError(err)
	}
	if s.Store != nil {
		if err := s.Store.Load(ctx, d); err != nil {
			return huma.Error500InternalServerError("map updated but analytics store failed", err)
		}
	}
	return nil
}

func (h *APIHandler) PutDataset(ctx context.Context, input *DatasetInput) (*StateOutput, error) {
	if err := h.svc.LoadDataset(ctx, heat.NewDataset(input.Body.Points)); err != nil {
		return nil, err
	}
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

func (h *APIHandler) DeleteDataset(ctx context.Context, input *struct{}) (*StateOutput, error) {
	if err := h.svc.LoadDataset(ctx, nil); err != nil {
		return nil, err
	}
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

func (h *APIHandler) GenerateDataset(ctx context.Context, input *GenerateInput) (*struct{ Body GenerateBody }, error) {
	d := heat.Generate(heat.GenerateOptions{Points: input.Body.Points, Seed: input.Body.Seed})
	if err := h.svc.LoadDataset(ctx, d); err != nil {
		return nil, err
	}
	return &struct{ Body GenerateBody }{Body: GenerateBody{
		State:      h.svc.Session.State(),
		Statistics: heat.Summarize(d, input.Body.Days, time.Now()),
	}}, nil
}

func (h *APIHandler) PutFilter(ctx context.Context, input *FilterInput) (*StateOutput, error) {
	zone, err := heat.ParseZoneFilter(input.Body.Zone)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err := h.svc.Session.SetZone(zone); err != nil {
		return nil, sessionError(err)
	}
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

func (h *APIHandler) PutHeatmap(ctx context.Context, input *HeatmapInput) (*StateOutput, error) {
	if err := h.svc.Session.SetHeatmap(input.Body.Visible); err != nil {
		return nil, sessionError(err)
	}
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

// PostReady delivers the browser's load-complete signal.
func (h *APIHandler) PostReady(ctx context.Context, input *struct{}) (*StateOutput, error) {
	if err := h.svc.Session.MarkReady(); err != nil {
		return nil, sessionError(err)
	}
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

func (h *APIHandler) GetState(ctx context.Context, input *struct{}) (*StateOutput, error) {
	return &StateOutput{Body: h.svc.Session.State()}, nil
}

func (h *APIHandler) GetMarkers(ctx context.Context, input *struct{}) (*MarkersOutput, error) {
	return &MarkersOutput{Body: h.svc.Session.Surface().Markers()}, nil
}

func (h *APIHandler) GetSelection(ctx context.Context, input *struct{}) (*struct{ Body SelectionBody }, error) {
	var body SelectionBody
	if h.svc.Selection != nil {
		if p, ok := h.svc.Selection.Get(); ok {
			body.Selected, body.Point = true, &p
		}
	}
	return &struct{ Body SelectionBody }{Body: body}, nil
}

func sessionError(err error) error {
	if errors.Is(err, mapsync.ErrClosed) || errors.Is(err, surface.ErrDestroyed) {
		return huma.Error503ServiceUnavailable("map session closed", err)
	}
	return huma.Error500InternalServerError("map update failed", err)
}
