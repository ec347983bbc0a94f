// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/telekom/geotrace/internal/logger"
	"github.com/tidwall/gjson"
)

// maxBodySize limits how much of a provider response is read.
const maxBodySize = 64 << 10

// Provider looks up the location of an address at an external service.
//
//go:generate go tool moq -out provider_moq.go . Provider
type Provider interface {
	// Name returns the name of the provider.
	Name() string
	// Lookup queries the location of the address.
	// An error is returned only for transient failures like transport errors,
	// non-2xx responses or malformed bodies. A provider that answered but has
	// no usable location returns a declined [Answer].
	Lookup(ctx context.Context, addr string) (Answer, error)
}

// getJSON performs a GET request and returns the response body as a JSON document.
func getJSON(ctx context.Context, client *http.Client, provider, url string) (gjson.Result, error) {
	log := logger.FromContext(ctx).With("provider", provider, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req) //nolint:bodyclose // Closed in defer below
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to query %s: %w", provider, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close response body", "error", err.Error())
		}
	}(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return gjson.Result{}, &ErrUnexpectedStatus{Provider: provider, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response of %s: %w", provider, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: %w", provider, ErrMalformedBody)
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("%s: %w: expected an object", provider, ErrMalformedBody)
	}
	return doc, nil
}
