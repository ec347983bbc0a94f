// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package framework runs geotrace end-to-end against a fake tracing
// utility and a local geolocation provider.
package framework

import (
	"context"
	"net"
	"testing"

	"github.com/telekom/geotrace/pkg/config"
)

// Runner is a test that can be run.
type Runner interface {
	// Run runs the test until the context is done.
	Run(ctx context.Context) error
}

// Framework creates end-to-end tests.
type Framework struct {
	t *testing.T
}

// New creates a new test framework.
func New(t *testing.T) *Framework {
	return &Framework{t: t}
}

// E2E creates a new end-to-end test with the given configuration.
// The API listens on a free local port if no address is configured.
func (f *Framework) E2E(cfg *config.Config) *E2E {
	f.t.Helper()
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if cfg.Api.ListeningAddress == "" || cfg.Api.ListeningAddress == config.DefaultAddress {
		cfg.Api.ListeningAddress = freeAddress(f.t)
	}
	return &E2E{t: f.t, config: *cfg}
}

// freeAddress returns a local address that is free to listen on.
func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().String()
}
