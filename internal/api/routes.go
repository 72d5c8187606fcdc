// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-uhi/internal/db"
	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
)

// Services holds the dependencies for API handlers.
type Services struct {
	Session   *mapsync.Session
	Store     *db.Store // optional analytics store
	Selection *Selection
	Log       *slog.Logger

	loadMu sync.Mutex // pairs session and store updates
}

// Selection remembers the most recently clicked point. It is the host-side
// receiver of marker clicks.
type Selection struct {
	mu    sync.RWMutex
	point *heat.Point
}

// Set records p as selected.
func (s *Selection) Set(p heat.Point) {
	s.mu.Lock()
	s.point = &p
	s.mu.Unlock()
}

// Get returns the selected point, if any.
func (s *Selection) Get() (heat.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.point == nil {
		return heat.Point{}, false
	}
	return *s.point, true
}

// Types

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route.
func RegisterRoutes(api huma.API, svc *Services) {
	h := NewAPIHandler(svc)
	h.RegisterHealth(api)
	h.RegisterAnalyze(api)
	h.RegisterMap(api)
	NewDBHandler(svc.Store).RegisterRoutes(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) log() *slog.Logger {
	if h.svc.Log != nil {
		return h.svc.Log
	}
	return slog.Default()
}
