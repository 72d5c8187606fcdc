package surface

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Anchor is a control position on the surface.
type Anchor string

const (
	TopRight   Anchor = "top-right"
	BottomLeft Anchor = "bottom-left"
)

// ControlKind names a built-in map control.
type ControlKind string

const (
	NavigationControl ControlKind = "navigation"
	FullscreenControl ControlKind = "fullscreen"
	ScaleControl      ControlKind = "scale"
)

// Control is a control attached at an anchor.
type Control struct {
	Kind     ControlKind `json:"kind"`
	Position Anchor      `json:"position"`
}

// Config describes the surface to create.
type Config struct {
	AccessToken string    `json:"accessToken"`
	Container   string    `json:"container"`
	Style       string    `json:"style"`
	Center      orb.Point `json:"center"`
	Zoom        float64   `json:"zoom"`
	Pitch       float64   `json:"pitch"`
	Controls    []Control `json:"controls"`
}

// DefaultConfig returns the fixed initial viewport, theme and controls.
func DefaultConfig(accessToken string) Config {
	return Config{
		AccessToken: accessToken,
		Container:   "map",
		Style:       "mapbox://styles/mapbox/dark-v11",
		Center:      orb.Point{85.8245, 20.2961},
		Zoom:        12,
		Pitch:       45,
		Controls: []Control{
			{Kind: NavigationControl, Position: TopRight},
			{Kind: FullscreenControl, Position: TopRight},
			{Kind: ScaleControl, Position: BottomLeft},
		},
	}
}

// Validate checks the configuration; a missing token is fatal.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return ErrMissingAccessToken
	}
	if c.Zoom < 0 || c.Zoom > 24 {
		return fmt.Errorf("surface: zoom %v out of range", c.Zoom)
	}
	if c.Pitch < 0 || c.Pitch > 85 {
		return fmt.Errorf("surface: pitch %v out of range", c.Pitch)
	}
	return nil
}
