// Package mapsync reconciles a heat dataset against a rendering surface:
// per-point markers, the density heatmap and the fitted viewport.
package mapsync

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/style"
	"github.com/joeblew999/plat-uhi/internal/surface"
)

// ClickFunc receives the point behind a clicked marker.
type ClickFunc func(heat.Point)

// Strategy selects how the marker registry is reconciled.
type Strategy string

const (
	// StrategyDiff keeps markers whose point is unchanged and only adds or
	// removes the delta.
	StrategyDiff Strategy = "diff"
	// StrategyRebuild releases every marker and recreates the full set.
	StrategyRebuild Strategy = "rebuild"
)

// ParseStrategy parses a strategy name; empty selects StrategyDiff.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyDiff:
		return StrategyDiff, nil
	case StrategyRebuild:
		return StrategyRebuild, nil
	}
	return "", fmt.Errorf("unknown marker strategy %q", s)
}

// markerKey identifies a point by value. Points have no stable id, so
// repeated identical points are told apart by occurrence number.
type markerKey struct {
	point heat.Point
	n     int
}

type markerEntry struct {
	id  string
	key markerKey
}

// ReconcileResult counts what a reconciliation did.
type ReconcileResult struct {
	Added   int
	Removed int
	Kept    int
}

// Markers owns the live marker registry for one surface.
type Markers struct {
	surf     surface.Surface
	strategy Strategy
	seq      uint64
	entries  []markerEntry // input order
	byID     map[string]heat.Point
	onClick  ClickFunc
}

// NewMarkers creates an empty registry drawing onto surf.
func NewMarkers(surf surface.Surface, strategy Strategy) *Markers {
	if strategy == "" {
		strategy = StrategyDiff
	}
	return &Markers{surf: surf, strategy: strategy, byID: map[string]heat.Point{}}
}

// Reconcile makes the registry show exactly points, in order, each marker
// wired to onClick. It does nothing while the surface is not ready.
func (m *Markers) Reconcile(points []heat.Point, onClick ClickFunc) (ReconcileResult, error) {
	var res ReconcileResult
	if !m.surf.IsReady() {
		return res, nil
	}
	m.onClick = onClick

	keys := keysFor(points)
	want := make(map[markerKey]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	live := make(map[markerKey]markerEntry, len(m.entries))
	for i, e := range m.entries {
		if _, ok := want[e.key]; ok && m.strategy == StrategyDiff {
			live[e.key] = e
			continue
		}
		if err := m.surf.RemoveMarker(e.id); err != nil {
			m.commit(append(keptOf(m.entries[:i], live), m.entries[i:]...))
			return res, fmt.Errorf("remove marker %s: %w", e.id, err)
		}
		res.Removed++
	}

	next := make([]markerEntry, 0, len(points))
	for i, p := range points {
		k := keys[i]
		if e, ok := live[k]; ok {
			next = append(next, e)
			res.Kept++
			continue
		}
		e := markerEntry{id: m.nextID(), key: k}
		enc := style.Style(p)
		err := m.surf.AddMarker(surface.Marker{
			ID:       e.id,
			Position: orb.Point{p.Lon, p.Lat},
			Size:     enc.Size,
			Color:    enc.Color,
			Popup:    enc.Popup,
		})
		if err != nil {
			m.commit(append(next, keysToEntries(keys[i+1:], live)...))
			return res, fmt.Errorf("add marker for point %d: %w", i, err)
		}
		next = append(next, e)
		res.Added++
	}

	m.commit(next)
	return res, nil
}

// commit swaps in the new registry generation.
func (m *Markers) commit(entries []markerEntry) {
	byID := make(map[string]heat.Point, len(entries))
	for _, e := range entries {
		byID[e.id] = e.key.point
	}
	m.entries, m.byID = entries, byID
}

func (m *Markers) nextID() string {
	m.seq++
	return fmt.Sprintf("marker-%d", m.seq)
}

// Lookup returns the point behind a marker id without dispatching.
func (m *Markers) Lookup(id string) (heat.Point, ClickFunc, bool) {
	p, ok := m.byID[id]
	return p, m.onClick, ok
}

// Len returns the registry size.
func (m *Markers) Len() int { return len(m.entries) }

// IDs returns marker ids in input order.
func (m *Markers) IDs() []string {
	ids := make([]string, len(m.entries))
	for i, e := range m.entries {
		ids[i] = e.id
	}
	return ids
}

// Points returns the displayed points in input order.
func (m *Markers) Points() []heat.Point {
	out := make([]heat.Point, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.key.point
	}
	return out
}

// forget drops the registry without touching the surface; used once the
// surface has released the markers itself.
func (m *Markers) forget() {
	m.commit(nil)
	m.onClick = nil
}

func keysFor(points []heat.Point) []markerKey {
	seen := make(map[heat.Point]int, len(points))
	keys := make([]markerKey, len(points))
	for i, p := range points {
		keys[i] = markerKey{point: p, n: seen[p]}
		seen[p]++
	}
	return keys
}

func keptOf(entries []markerEntry, live map[markerKey]markerEntry) []markerEntry {
	var out []markerEntry
	for _, e := range entries {
		if le, ok := live[e.key]; ok && le.id == e.id {
			out = append(out, e)
		}
	}
	return out
}

func keysToEntries(keys []markerKey, live map[markerKey]markerEntry) []markerEntry {
	var out []markerEntry
	for _, k := range keys {
		if e, ok := live[k]; ok {
			out = append(out, e)
		}
	}
	return out
}
