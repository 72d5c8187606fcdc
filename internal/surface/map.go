package surface

import (
	"fmt"
	"slices"
	"sync"

	"github.com/paulmach/orb"
)

// Map is the server-side rendering surface. It owns the authoritative
// marker, source and layer state and publishes each mutation.
type Map struct {
	cfg Config
	pub Publisher

	mu        sync.Mutex
	markers   map[string]Marker
	order     []string // marker ids in insertion order
	sources   map[string]Source
	layers    map[string]Layer
	layerIDs  []string
	fit       *Fit
	destroyed bool

	readyOnce sync.Once
	ready     chan struct{}
}

var _ Surface = (*Map)(nil)

// Initialize creates the surface and attaches its controls. A missing
// access token is returned as ErrMissingAccessToken. pub may be nil.
func Initialize(cfg Config, pub Publisher) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("initialize surface: %w", err)
	}
	m := &Map{
		cfg:     cfg,
		pub:     pub,
		markers: make(map[string]Marker),
		sources: make(map[string]Source),
		layers:  make(map[string]Layer),
		ready:   make(chan struct{}),
	}
	m.publish(Command{Op: OpCreate, Config: &m.cfg})
	return m, nil
}

// Config returns the configuration the surface was created with.
func (m *Map) Config() Config { return m.cfg }

// MarkReady fires the one-time ready signal. Later calls, and calls after
// teardown, do nothing.
func (m *Map) MarkReady() {
	m.mu.Lock()
	destroyed := m.destroyed
	m.mu.Unlock()
	if destroyed {
		return
	}
	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready returns a channel closed once the base style has loaded.
func (m *Map) Ready() <-chan struct{} { return m.ready }

// IsReady reports whether layer and marker operations are allowed.
func (m *Map) IsReady() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usableLocked() == nil
}

func (m *Map) usableLocked() error {
	if m.destroyed {
		return ErrDestroyed
	}
	select {
	case <-m.ready:
		return nil
	default:
		return ErrNotReady
	}
}

func (m *Map) publish(c Command) {
	if m.pub != nil {
		m.pub.Publish(c)
	}
}

// AddMarker places a marker.
func (m *Map) AddMarker(mk Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if _, ok := m.markers[mk.ID]; ok {
		return fmt.Errorf("%w: marker %q", ErrDuplicateID, mk.ID)
	}
	m.markers[mk.ID] = mk
	m.order = append(m.order, mk.ID)
	m.publish(Command{Op: OpAddMarker, ID: mk.ID, Marker: &mk})
	return nil
}

// RemoveMarker releases a marker and its popup.
func (m *Map) RemoveMarker(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	return m.removeMarkerLocked(id)
}

func (m *Map) removeMarkerLocked(id string) error {
	if _, ok := m.markers[id]; !ok {
		return fmt.Errorf("%w: marker %q", ErrUnknownID, id)
	}
	delete(m.markers, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	m.publish(Command{Op: OpRemoveMarker, ID: id})
	return nil
}

// AddSource registers a geometry source.
func (m *Map) AddSource(s Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if _, ok := m.sources[s.ID]; ok {
		return fmt.Errorf("%w: source %q", ErrDuplicateID, s.ID)
	}
	m.sources[s.ID] = s
	m.publish(Command{Op: OpAddSource, ID: s.ID, Source: &s})
	return nil
}

// RemoveSource drops a source. Layers drawing it must be removed first.
func (m *Map) RemoveSource(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnknownID, id)
	}
	for _, l := range m.layers {
		if l.Source == id {
			return fmt.Errorf("%w: %q used by %q", ErrSourceInUse, id, l.ID)
		}
	}
	delete(m.sources, id)
	m.publish(Command{Op: OpRemoveSource, ID: id})
	return nil
}

// HasSource reports whether a source is registered.
func (m *Map) HasSource(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sources[id]
	return ok
}

// AddLayer adds a styled layer on top of existing ones.
func (m *Map) AddLayer(l Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if _, ok := m.layers[l.ID]; ok {
		return fmt.Errorf("%w: layer %q", ErrDuplicateID, l.ID)
	}
	if _, ok := m.sources[l.Source]; !ok {
		return fmt.Errorf("%w: source %q for layer %q", ErrUnknownID, l.Source, l.ID)
	}
	m.layers[l.ID] = l
	m.layerIDs = append(m.layerIDs, l.ID)
	m.publish(Command{Op: OpAddLayer, ID: l.ID, Layer: &l})
	return nil
}

// RemoveLayer drops a layer.
func (m *Map) RemoveLayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	return m.removeLayerLocked(id)
}

func (m *Map) removeLayerLocked(id string) error {
	if _, ok := m.layers[id]; !ok {
		return fmt.Errorf("%w: layer %q", ErrUnknownID, id)
	}
	delete(m.layers, id)
	m.layerIDs = slices.DeleteFunc(m.layerIDs, func(s string) bool { return s == id })
	m.publish(Command{Op: OpRemoveLayer, ID: id})
	return nil
}

// HasLayer reports whether a layer is present.
func (m *Map) HasLayer(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.layers[id]
	return ok
}

// FitBounds requests an animated viewport change. The animation itself
// runs on the client; this call does not wait for it.
func (m *Map) FitBounds(b orb.Bound, opts FitOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	m.fit = &Fit{Bounds: b, Options: opts}
	m.publish(fitCommand(*m.fit))
	return nil
}

// LastFit returns the most recent viewport fit, if any.
func (m *Map) LastFit() (Fit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fit == nil {
		return Fit{}, false
	}
	return *m.fit, true
}

// Markers returns the live markers in insertion order.
func (m *Map) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Marker, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.markers[id])
	}
	return out
}

// SourceIDs returns the registered source ids, sorted.
func (m *Map) SourceIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sources))
	for id := range m.sources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LayerIDs returns layer ids bottom to top.
func (m *Map) LayerIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.layerIDs)
}

// Destroyed reports whether Teardown has run.
func (m *Map) Destroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Snapshot returns the commands that rebuild the current state on a
// fresh client, in dependency order.
func (m *Map) Snapshot() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Map) snapshotLocked() []Command {
	if m.destroyed {
		return []Command{{Op: OpDestroy}}
	}
	cmds := []Command{{Op: OpCreate, Config: &m.cfg}}
	srcIDs := make([]string, 0, len(m.sources))
	for id := range m.sources {
		srcIDs = append(srcIDs, id)
	}
	slices.Sort(srcIDs)
	for _, id := range srcIDs {
		s := m.sources[id]
		cmds = append(cmds, Command{Op: OpAddSource, ID: id, Source: &s})
	}
	for _, id := range m.layerIDs {
		l := m.layers[id]
		cmds = append(cmds, Command{Op: OpAddLayer, ID: id, Layer: &l})
	}
	for _, id := range m.order {
		mk := m.markers[id]
		cmds = append(cmds, Command{Op: OpAddMarker, ID: id, Marker: &mk})
	}
	if m.fit != nil {
		cmds = append(cmds, fitCommand(*m.fit))
	}
	return cmds
}

// Teardown releases every marker, layer and source and invalidates the
// surface. It is safe on a nil or already torn-down Map.
func (m *Map) Teardown() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	for _, id := range slices.Clone(m.order) {
		_ = m.removeMarkerLocked(id)
	}
	for _, id := range slices.Clone(m.layerIDs) {
		_ = m.removeLayerLocked(id)
	}
	for id := range m.sources {
		delete(m.sources, id)
		m.publish(Command{Op: OpRemoveSource, ID: id})
	}
	m.fit = nil
	m.destroyed = true
	m.publish(Command{Op: OpDestroy})
}

// Attach subscribes to bus and returns the current snapshot. Both happen
// under the surface lock, so the subscriber sees every later command
// exactly once.
func (m *Map) Attach(bus *Bus) ([]Command, chan Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), bus.Subscribe()
}
