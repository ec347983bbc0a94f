// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrServerShutdown is returned when the server could not be shut down gracefully
	ErrServerShutdown = errors.New("failed to shutdown api server")
	// ErrMissingAddress is returned when no listening address is configured
	ErrMissingAddress = errors.New("api listening address must be set")
	// ErrMissingCertificate is returned when tls is enabled without certificate or key
	ErrMissingCertificate = errors.New("tls requires a certificate and a key path")
)

// ErrInvalidRoute is returned when a route cannot be registered
type ErrInvalidRoute struct {
	Path   string
	Method string
}

func (e *ErrInvalidRoute) Error() string {
	return fmt.Sprintf("cannot register route %q with method %q", e.Path, e.Method)
}

// ErrCreateOpenapiSchema is returned when the openapi schema of a response type cannot be generated
type ErrCreateOpenapiSchema struct {
	Name string
	Err  error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to get schema for %s: %v", e.Name, e.Err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.Err
}
