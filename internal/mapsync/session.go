package mapsync

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("mapsync: session closed")

// Props are the host inputs to a session.
type Props struct {
	Data         *heat.Dataset // nil until loaded
	Zone         heat.ZoneFilter
	ShowHeatmap  bool
	OnPointClick ClickFunc
}

// Options configure a session.
type Options struct {
	Strategy Strategy
	Fit      surface.FitOptions
	Logger   *slog.Logger
}

// State is an observable summary of a session.
type State struct {
	Ready         bool          `json:"ready" doc:"Surface has loaded its base style"`
	Destroyed     bool          `json:"destroyed" doc:"Surface has been torn down"`
	DatasetLoaded bool          `json:"datasetLoaded" doc:"A dataset snapshot is present"`
	Points        int           `json:"points" doc:"Points in the dataset"`
	Filtered      int           `json:"filtered" doc:"Points passing the zone filter"`
	Markers       int           `json:"markers" doc:"Live markers"`
	Zone          string        `json:"zone" doc:"Zone filter ('all' or zone id)"`
	ShowHeatmap   bool          `json:"showHeatmap" doc:"Requested heatmap visibility"`
	Heatmap       bool          `json:"heatmap" doc:"Heatmap source and layer are present"`
	Sources       []string      `json:"sources" doc:"Surface source ids"`
	Layers        []string      `json:"layers" doc:"Surface layer ids"`
	Bounds        *[2]orb.Point `json:"bounds,omitempty" doc:"Last fitted bounds [[minLon,minLat],[maxLon,maxLat]]"`
}

type markersInput struct {
	data *heat.Dataset
	zone heat.ZoneFilter
}

type densityInput struct {
	data    *heat.Dataset
	visible bool
}

// Session exclusively owns one surface, its marker registry and its
// density layer. All methods are serialized, standing in for the single
// UI thread the engine assumes.
type Session struct {
	mu       sync.Mutex
	surf     *surface.Map
	markers  *Markers
	density  *Density
	viewport *Viewport
	log      *slog.Logger

	props Props

	// last inputs applied to a ready surface, for change detection
	markersApplied  *markersInput
	densityApplied  *densityInput
	viewportApplied *markersInput

	closed bool
}

// NewSession creates the surface and an idle session around it.
func NewSession(cfg surface.Config, pub surface.Publisher, opts Options) (*Session, error) {
	surf, err := surface.Initialize(cfg, pub)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		surf:     surf,
		markers:  NewMarkers(surf, opts.Strategy),
		density:  NewDensity(surf),
		viewport: NewViewport(surf, opts.Fit),
		log:      log.With("component", "mapsync"),
	}, nil
}

// Surface returns the owned surface.
func (s *Session) Surface() *surface.Map { return s.surf }

// MarkReady delivers the surface's load-complete signal and applies the
// current props.
func (s *Session) MarkReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.surf.MarkReady()
	s.log.Info("surface ready")
	return s.updateLocked()
}

// Update replaces the props and re-applies each subsystem whose inputs
// changed since it last ran.
func (s *Session) Update(p Props) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.props = p
	return s.updateLocked()
}

// SetData replaces the dataset snapshot.
func (s *Session) SetData(d *heat.Dataset) error {
	return s.modify(func(p *Props) { p.Data = d })
}

// SetZone changes the zone filter.
func (s *Session) SetZone(z heat.ZoneFilter) error {
	return s.modify(func(p *Props) { p.Zone = z })
}

// SetHeatmap toggles the density layer.
func (s *Session) SetHeatmap(visible bool) error {
	return s.modify(func(p *Props) { p.ShowHeatmap = visible })
}

// SetOnPointClick replaces the marker click callback.
func (s *Session) SetOnPointClick(fn ClickFunc) error {
	return s.modify(func(p *Props) { p.OnPointClick = fn })
}

func (s *Session) modify(fn func(*Props)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	fn(&s.props)
	return s.updateLocked()
}

// Props returns the current props.
func (s *Session) Props() Props {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.props
}

func (s *Session) updateLocked() error {
	p := s.props
	in := markersInput{data: p.Data, zone: p.Zone}

	// the click callback may change without a data change; keep the
	// registry's binding current either way
	s.markers.onClick = p.OnPointClick

	var errs []error
	if s.markersApplied == nil || *s.markersApplied != in {
		if err := s.applyMarkersLocked(p.Data, p.Zone, p.OnPointClick); err != nil {
			errs = append(errs, err)
		}
	}
	dIn := densityInput{data: p.Data, visible: p.ShowHeatmap}
	if s.densityApplied == nil || *s.densityApplied != dIn {
		if err := s.applyHeatmapLocked(p.Data, p.ShowHeatmap); err != nil {
			errs = append(errs, err)
		}
	}
	if s.viewportApplied == nil || *s.viewportApplied != in {
		if err := s.applyViewportLocked(p.Data, p.Zone); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplyMarkers reconciles the marker registry against the dataset filtered
// by zone. Safe to repeat with the same inputs.
func (s *Session) ApplyMarkers(d *heat.Dataset, zone heat.ZoneFilter, onClick ClickFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.applyMarkersLocked(d, zone, onClick)
}

func (s *Session) applyMarkersLocked(d *heat.Dataset, zone heat.ZoneFilter, onClick ClickFunc) error {
	if d == nil || !s.surf.IsReady() {
		return nil
	}
	res, err := s.markers.Reconcile(heat.Filter(d, zone), onClick)
	if err != nil {
		s.log.Error("reconcile markers", "error", err)
		return err
	}
	s.markersApplied = &markersInput{data: d, zone: zone}
	s.log.Debug("markers reconciled",
		"added", res.Added, "removed", res.Removed, "kept", res.Kept, "total", s.markers.Len())
	return nil
}

// ApplyHeatmap installs or removes the density layer. Safe to repeat.
func (s *Session) ApplyHeatmap(d *heat.Dataset, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.applyHeatmapLocked(d, visible)
}

func (s *Session) applyHeatmapLocked(d *heat.Dataset, visible bool) error {
	if !s.surf.IsReady() {
		return nil
	}
	if err := s.density.Update(d, visible); err != nil {
		s.log.Error("update heatmap", "error", err)
		return err
	}
	if d != nil || !visible {
		s.densityApplied = &densityInput{data: d, visible: visible}
	}
	s.log.Debug("heatmap updated", "visible", s.density.Visible(), "points", d.Len())
	return nil
}

// ApplyViewport fits the viewport to the dataset filtered by zone.
func (s *Session) ApplyViewport(d *heat.Dataset, zone heat.ZoneFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.applyViewportLocked(d, zone)
}

func (s *Session) applyViewportLocked(d *heat.Dataset, zone heat.ZoneFilter) error {
	if d == nil || !s.surf.IsReady() {
		return nil
	}
	b, fitted, err := s.viewport.Fit(heat.Filter(d, zone))
	if err != nil {
		s.log.Error("fit viewport", "error", err)
		return err
	}
	s.viewportApplied = &markersInput{data: d, zone: zone}
	if fitted {
		s.log.Debug("viewport fitted", "min", b.Min, "max", b.Max)
	}
	return nil
}

// Click dispatches a marker click to the current callback. The callback
// runs outside the session lock so it may call back into the session.
func (s *Session) Click(markerID string) (heat.Point, bool) {
	s.mu.Lock()
	p, fn, ok := s.markers.Lookup(markerID)
	s.mu.Unlock()
	if !ok {
		return heat.Point{}, false
	}
	if fn != nil {
		fn(p)
	}
	return p, true
}

// State returns an observable summary.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Ready:         s.surf.IsReady(),
		Destroyed:     s.surf.Destroyed(),
		DatasetLoaded: s.props.Data != nil,
		Points:        s.props.Data.Len(),
		Filtered:      len(heat.Filter(s.props.Data, s.props.Zone)),
		Markers:       s.markers.Len(),
		Zone:          s.props.Zone.String(),
		ShowHeatmap:   s.props.ShowHeatmap,
		Heatmap:       s.density.Visible(),
		Sources:       s.surf.SourceIDs(),
		Layers:        s.surf.LayerIDs(),
	}
	if fit, ok := s.surf.LastFit(); ok {
		st.Bounds = &[2]orb.Point{fit.Bounds.Min, fit.Bounds.Max}
	}
	return st
}

// MarkerIDs returns the live marker ids in display order.
func (s *Session) MarkerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers.IDs()
}

// Close tears the surface down, releasing every marker, layer and source.
// It is idempotent.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.surf.Teardown()
	s.markers.forget()
	s.markersApplied, s.densityApplied, s.viewportApplied = nil, nil, nil
	s.closed = true
	s.log.Info("session closed")
}
