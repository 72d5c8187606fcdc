package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-uhi/internal/api"
	"github.com/joeblew999/plat-uhi/internal/api/live"
	"github.com/joeblew999/plat-uhi/internal/db"
	"github.com/joeblew999/plat-uhi/internal/heat"
	"github.com/joeblew999/plat-uhi/internal/mapsync"
	"github.com/joeblew999/plat-uhi/internal/surface"
	"github.com/joeblew999/plat-uhi/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	AccessToken string
	Strategy    mapsync.Strategy
	Logger      *slog.Logger
}

// Server is the UHI map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	bus      *surface.Bus
	store    *db.Store
	services *api.Services
	renderer *templates.Renderer
	log      *slog.Logger
}

// New creates the server and its map session. A missing access token is
// returned as surface.ErrMissingAccessToken.
func New(cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Strategy == "" {
		cfg.Strategy = mapsync.StrategyDiff
	}
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-uhi API", "1.0.0")
	humaConfig.Info.Description = "Urban heat island map API: dataset, zone filter and heatmap synchronization."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := surface.NewBus()
	selection := &api.Selection{}
	session, err := mapsync.NewSession(surface.DefaultConfig(cfg.AccessToken), bus, mapsync.Options{
		Strategy: cfg.Strategy,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	if err := session.SetOnPointClick(func(p heat.Point) { selection.Set(p) }); err != nil {
		session.Close()
		return nil, err
	}

	renderer, err := templates.New()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("load fragments: %w", err)
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		bus:      bus,
		renderer: renderer,
		log:      log,
	}

	// Analytics are optional; the map works without DuckDB.
	if store, err := db.Open(); err == nil {
		s.store = store
	} else {
		log.Warn("duckdb unavailable", "error", err)
	}

	s.services = &api.Services{
		Session:   session,
		Store:     s.store,
		Selection: selection,
		Log:       log,
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Session returns the map session.
func (s *Server) Session() *mapsync.Session {
	return s.services.Session
}

// Close tears down the map and closes the analytics store.
func (s *Server) Close() error {
	s.services.Session.Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(string(s.config.Strategy), s.store != nil).RegisterRoutes(s.humaAPI)

	live.NewMapHandler(s.services.Session, s.bus, s.renderer, s.log).RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"service":"plat-uhi","status":"running"}`)
}
