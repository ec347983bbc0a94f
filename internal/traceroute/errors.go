// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is wrapped by [ErrExecution] when the utility exceeded its timeout and was killed.
	ErrTimeout = errors.New("trace timed out")
	// ErrNoOutput is wrapped by [ErrExecution] when the utility failed without output describing a route.
	ErrNoOutput = errors.New("trace utility exited without output")
	// errNotStructured is returned by the structured decoder for input it does not understand.
	errNotStructured = errors.New("output is not a structured report")
)

// ErrExecution is returned when the tracing utility could not be run,
// crashed without usable output or exceeded the timeout.
type ErrExecution struct {
	Target string
	Err    error
}

func (e *ErrExecution) Error() string {
	return fmt.Sprintf("failed to trace %q: %v", e.Target, e.Err)
}

func (e *ErrExecution) Unwrap() error {
	return e.Err
}

// ErrInvalidTarget is returned when a target must not be passed to the tracing utility.
type ErrInvalidTarget struct {
	Target string
	Reason string
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
}

// ErrInvalidOptions is returned when the trace options are invalid
type ErrInvalidOptions struct {
	Field  string
	Reason string
}

func (e ErrInvalidOptions) Error() string {
	return fmt.Sprintf("invalid trace option %q: %s", e.Field, e.Reason)
}
