package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// links maps operation paths to their RFC 8288 Link header values.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/map/state>; rel="map"`,
		`</api/analyze/uhi>; rel="analyze"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
	},
	"/api/v1/map/state": {
		`</api/v1/map/markers>; rel="markers"`,
		`</api/v1/map/selection>; rel="selection"`,
		`</api/v1/map/stream>; rel="stream"`,
	},
	"/api/v1/map/markers": {
		`</api/v1/map/state>; rel="up"`,
	},
	"/api/v1/zones": {
		`</api/v1/query>; rel="search"`,
	},
	"/api/v1/tables": {
		`</api/v1/query>; rel="query"`,
	},
}

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link headers.
func LinkTransformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}
		for _, link := range links[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		return v, nil
	}
}
