// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geotrace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/internal/traceroute"
	"github.com/telekom/geotrace/pkg"
	"github.com/telekom/geotrace/pkg/api"
	"github.com/telekom/geotrace/pkg/enrich"
	"gopkg.in/yaml.v3"
)

const (
	tracePath   = "/v1/trace"
	openapiPath = "/openapi"
	metricsPath = "/metrics"
	healthPath  = "/healthz"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

// routes returns the routes served by the API
func (g *Geotrace) routes(ctx context.Context) []api.Route {
	metricsHandler := promhttp.HandlerFor(g.metrics.GetRegistry(), promhttp.HandlerOpts{
		Registry: g.metrics.GetRegistry(),
	})

	return []api.Route{
		{Path: tracePath, Method: http.MethodGet, Handler: g.handleTrace},
		{Path: openapiPath, Method: http.MethodGet, Handler: g.handleOpenAPI},
		{Path: metricsPath, Method: http.MethodGet, Handler: metricsHandler.ServeHTTP},
		{Path: healthPath, Method: http.MethodGet, Handler: handleHealth(ctx)},
	}
}

// handleTrace traces the target of the query and returns the enriched path.
// Invalid targets are rejected with 400, failed traces are answered with 502.
func (g *Geotrace) handleTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	target, err := traceroute.NormalizeTarget(r.URL.Query().Get("target"))
	if err != nil {
		log.DebugContext(ctx, "Rejected trace request", "error", err)
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := g.pipeline.Enrich(ctx, target)
	if err != nil {
		var pErr *enrich.ErrPipeline
		if errors.As(err, &pErr) {
			writeJSON(ctx, w, http.StatusBadGateway, errorResponse{Error: err.Error()})
			return
		}
		log.ErrorContext(ctx, "Unexpected error while tracing", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	writeJSON(ctx, w, http.StatusOK, res)
}

// handleOpenAPI serves the openapi document of the API.
// It is encoded as json if requested, yaml otherwise.
func (g *Geotrace) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	doc, err := openapiDocument()
	if err != nil {
		log.ErrorContext(ctx, "Failed to create openapi document", "error", err)
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	if r.Header.Get("Accept") == "application/json" {
		writeJSON(ctx, w, http.StatusOK, doc)
		return
	}

	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	enc := yaml.NewEncoder(w)
	defer func() {
		if cErr := enc.Close(); cErr != nil {
			log.ErrorContext(ctx, "Failed to close yaml encoder", "error", cErr)
		}
	}()
	if err = enc.Encode(doc); err != nil {
		log.ErrorContext(ctx, "Failed to encode openapi document", "error", err)
	}
}

// openapiDocument describes the routes served by geotrace
func openapiDocument() (*openapi3.T, error) {
	resultSchema, err := enrich.Schema()
	if err != nil {
		return nil, api.ErrCreateOpenapiSchema{Name: "trace result", Err: err}
	}
	errorSchema := openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())

	okDesc := "The traced path with the location of every public hop"
	badRequestDesc := "The target is missing or invalid"
	badGatewayDesc := "The tracing utility failed"

	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "geotrace API",
			Description: "Traces the network path to a target and geolocates its hops",
			Version:     pkg.VersionOrDev(),
		},
		Paths: openapi3.NewPaths(),
	}

	doc.Paths.Set(tracePath, &openapi3.PathItem{
		Get: &openapi3.Operation{
			Description: "Traces the path to the target and returns the enriched hops",
			Tags:        []string{"Trace"},
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewQueryParameter("target").
					WithRequired(true).
					WithDescription("Host name or IP address to trace").
					WithSchema(openapi3.NewStringSchema())},
			},
			Responses: openapi3.NewResponses(
				openapi3.WithName("200", &openapi3.Response{
					Description: &okDesc,
					Content:     openapi3.NewContentWithJSONSchemaRef(resultSchema),
				}),
				openapi3.WithName("400", &openapi3.Response{
					Description: &badRequestDesc,
					Content:     openapi3.NewContentWithJSONSchema(errorSchema),
				}),
				openapi3.WithName("502", &openapi3.Response{
					Description: &badGatewayDesc,
					Content:     openapi3.NewContentWithJSONSchema(errorSchema),
				}),
			),
		},
	})
	return doc, nil
}

// handleHealth answers with ok as long as the API is serving
func handleHealth(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.FromContext(ctx).ErrorContext(r.Context(), "Could not write response", "error", err)
		}
	}
}

// writeJSON encodes the body as the json response with the given status
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to encode response", "error", fmt.Errorf("status %d: %w", status, err))
	}
}
