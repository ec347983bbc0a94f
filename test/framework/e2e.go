// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package framework

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/telekom/geotrace/internal/geo"
	"github.com/telekom/geotrace/pkg/config"
	"github.com/telekom/geotrace/pkg/geotrace"
)

var _ Runner = (*E2E)(nil)

// E2E is an end-to-end test.
type E2E struct {
	config   config.Config
	t        *testing.T
	geotrace *geotrace.Geotrace

	// locations are served by the local provider
	locations map[string]geo.Record
	provider  *httptest.Server
	lookups   atomic.Int32

	running int32
}

// WithReport lets the tracing utility print the given report for every target.
func (e *E2E) WithReport(report string) *E2E {
	e.t.Helper()
	const fileMode = 0o755
	path := filepath.Join(e.t.TempDir(), "mtr")
	script := fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\n", report)
	if err := os.WriteFile(path, []byte(script), fileMode); err != nil { // #nosec G306
		e.t.Fatalf("Failed to write fake tracing utility: %v", err)
	}
	e.config.Trace.Binary = path
	return e
}

// WithFailingTrace lets the tracing utility fail without output.
func (e *E2E) WithFailingTrace() *E2E {
	e.t.Helper()
	const fileMode = 0o755
	path := filepath.Join(e.t.TempDir(), "mtr")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho 'mtr: unable to get raw sockets' >&2\nexit 1\n"), fileMode); err != nil { // #nosec G306
		e.t.Fatalf("Failed to write fake tracing utility: %v", err)
	}
	e.config.Trace.Binary = path
	return e
}

// WithLocations serves the locations from a local ip-api compatible provider,
// which is configured as the only provider. Unknown addresses are declined.
func (e *E2E) WithLocations(locations map[string]geo.Record) *E2E {
	e.t.Helper()
	e.locations = locations
	e.provider = httptest.NewServer(http.HandlerFunc(e.serveLocation))
	e.t.Cleanup(e.provider.Close)

	e.config.Geo.Providers = []geo.ProviderConfig{{Kind: geo.KindIPAPI, BaseURL: e.provider.URL}}
	return e
}

// Run starts the test.
func (e *E2E) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		e.t.Fatal("E2E.Run must be called once")
	}

	if err := e.config.Validate(ctx); err != nil {
		return fmt.Errorf("invalid e2e configuration: %w", err)
	}

	g, err := geotrace.New(&e.config)
	if err != nil {
		return fmt.Errorf("failed to create geotrace: %w", err)
	}
	e.geotrace = g
	return g.Run(ctx)
}

// URL returns the url of the given path served by the API.
func (e *E2E) URL(path string) string {
	return "http://" + e.config.Api.ListeningAddress + path
}

// Lookups returns the number of requests the local provider answered.
func (e *E2E) Lookups() int {
	return int(e.lookups.Load())
}

// AwaitStartup waits for the provided URL to be ready.
//
// Must be called after the e2e test started with [E2E.Run].
func (e *E2E) AwaitStartup(u string, failureTimeout time.Duration) *E2E {
	e.t.Helper()
	const backoff = 100 * time.Millisecond

	// Initial delay to allow the server to start.
	<-time.After(backoff)
	if !e.isRunning() {
		e.t.Fatal("E2E.AwaitStartup must be called after E2E.Run")
	}

	deadline := time.Now().Add(failureTimeout)
	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, u, http.NoBody)
		if err != nil {
			e.t.Fatalf("Failed to create request: %v", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return e
			}
		}

		<-time.After(backoff)
	}

	e.t.Fatalf("%s did not become ready within %v", u, failureTimeout)
	return e
}

// isRunning returns true if the test is running.
func (e *E2E) isRunning() bool {
	return atomic.LoadInt32(&e.running) == 1
}

// serveLocation answers like ip-api.com for the configured locations.
func (e *E2E) serveLocation(w http.ResponseWriter, r *http.Request) {
	e.lookups.Add(1)
	addr := strings.TrimPrefix(r.URL.Path, "/json/")

	body := map[string]any{"status": "fail", "message": "reserved range"}
	if rec, ok := e.locations[addr]; ok {
		body = map[string]any{
			"status":      "success",
			"lat":         rec.Latitude,
			"lon":         rec.Longitude,
			"city":        rec.City,
			"regionName":  rec.Region,
			"country":     rec.Country,
			"countryCode": rec.CountryCode,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		e.t.Errorf("Failed to write response: %v", err)
	}
}
