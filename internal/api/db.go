package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-uhi/internal/db"
)

// DBHandler handles analytics endpoints backed by DuckDB.
type DBHandler struct {
	store *db.Store
}

// NewDBHandler creates a new database handler.
func NewDBHandler(store *db.Store) *DBHandler {
	return &DBHandler{store: store}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("analytics"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("analytics"))
	huma.Get(api, "/api/v1/zones", h.ListZones, huma.OperationTags("analytics"))
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// ListTables returns all DuckDB tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := h.store.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	return out, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" doc:"SQL query to execute" example:"SELECT zone, count(*) FROM points GROUP BY zone"`
	}
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body struct {
		Columns []string         `json:"columns" doc:"Column names"`
		Rows    []map[string]any `json:"rows" doc:"Query results"`
		Count   int              `json:"count" doc:"Number of rows returned"`
	}
}

// Query executes a SQL query against the current snapshot.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	columns, rows, err := h.store.Query(ctx, input.Body.Query)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	out := &QueryOutput{}
	out.Body.Columns, out.Body.Rows, out.Body.Count = columns, rows, len(rows)
	return out, nil
}

// ZonesOutput is the per-zone summary response.
type ZonesOutput struct {
	Body []db.ZoneSummary
}

// ListZones aggregates the current snapshot by zone.
func (h *DBHandler) ListZones(ctx context.Context, input *struct{}) (*ZonesOutput, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	zones, err := h.store.Zones(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to summarize zones", err)
	}
	if zones == nil {
		zones = []db.ZoneSummary{}
	}
	return &ZonesOutput{Body: zones}, nil
}
