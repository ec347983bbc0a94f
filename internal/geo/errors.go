// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedBody is returned by providers when the response is not valid JSON.
	ErrMalformedBody = errors.New("malformed response body")
	// ErrNoProviders is returned when the configuration lists no provider.
	ErrNoProviders = errors.New("at least one geolocation provider is required")
	// ErrInvalidCacheTTL is returned when the cache time to live is not positive.
	ErrInvalidCacheTTL = errors.New("cache ttl must be greater than 0")
	// ErrInvalidTimeout is returned when the provider timeout is not positive.
	ErrInvalidTimeout = errors.New("provider timeout must be greater than 0")
	// ErrInvalidRetry is returned when the retry configuration is negative.
	ErrInvalidRetry = errors.New("retry count and delay must not be negative")
)

// ErrUnexpectedStatus is returned by providers for non-2xx responses.
type ErrUnexpectedStatus struct {
	Provider string
	Status   int
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("provider %s responded with status %d", e.Provider, e.Status)
}

// ErrUnknownProvider is returned for provider kinds that are not supported.
type ErrUnknownProvider struct {
	Kind ProviderKind
}

func (e ErrUnknownProvider) Error() string {
	return fmt.Sprintf("unknown geolocation provider %q", string(e.Kind))
}
