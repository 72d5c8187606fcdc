// Package style maps a heat point's attributes to its marker encoding.
package style

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"github.com/joeblew999/plat-uhi/internal/heat"
)

// Marker size bounds in pixels.
const (
	MinSize = 12.0
	MaxSize = 24.0
)

// Encoding is the visual encoding of one point.
type Encoding struct {
	Size  float64
	Color string
	Popup string
}

var popupTmpl = template.Must(template.New("popup").Parse(
	`<div class="uhi-popup">` +
		`<h3>{{.Severity}} Heat Zone</h3>` +
		`<p><strong>Temperature:</strong> {{.Temperature}}°C</p>` +
		`<p><strong>UHI Intensity:</strong> {{.Intensity}}°C</p>` +
		`<p><strong>NDVI:</strong> {{.NDVI}}</p>` +
		`<p><strong>Vegetation:</strong> {{.Vegetation}}</p>` +
		`<p class="uhi-recommendation">{{.Recommendation}}</p>` +
		`</div>`))

type popupData struct {
	Severity       string
	Temperature    string
	Intensity      string
	NDVI           string
	Vegetation     string
	Recommendation string
}

// Style returns the encoding for p. It is pure: equal points always yield
// equal encodings.
func Style(p heat.Point) Encoding {
	return Encoding{
		Size:  Size(p.UHIIntensity),
		Color: p.Color,
		Popup: Popup(p),
	}
}

// Size clamps 12 + 2*|uhi| into [MinSize, MaxSize].
func Size(uhi float64) float64 {
	s := MinSize + 2*math.Abs(uhi)
	if math.IsNaN(s) {
		return MinSize
	}
	return math.Max(MinSize, math.Min(MaxSize, s))
}

// Popup renders the escaped popup HTML for p.
func Popup(p heat.Point) string {
	var buf bytes.Buffer
	err := popupTmpl.Execute(&buf, popupData{
		Severity:       p.Severity,
		Temperature:    fmt.Sprintf("%.1f", p.LST),
		Intensity:      fmt.Sprintf("%+.1f", p.UHIIntensity),
		NDVI:           fmt.Sprintf("%.3f", p.NDVI),
		Vegetation:     p.Vegetation,
		Recommendation: p.Recommendation,
	})
	if err != nil {
		// only strings reach the template, so this cannot fail at runtime
		panic(err)
	}
	return buf.String()
}
