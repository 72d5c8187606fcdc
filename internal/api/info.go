package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	strategy string
	dbOK     bool
}

func NewInfoHandler(strategy string, dbOK bool) *InfoHandler {
	return &InfoHandler{strategy: strategy, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Strategy string   `json:"marker_strategy" doc:"Marker reconciliation strategy"`
	DB       bool     `json:"db" doc:"Whether the analytics database is available"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"markers", "heatmap", "zone-filter", "viewport-fit", "datastar"}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-uhi",
		Version:  "0.1.0",
		Strategy: h.strategy,
		DB:       h.dbOK,
		Features: features,
	}}, nil
}
