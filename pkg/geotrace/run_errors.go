// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geotrace

import "errors"

// ErrFinalShutdown is returned by [Geotrace.Run] once all components are shut down
var ErrFinalShutdown = errors.New("geotrace was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of geotrace
type ErrShutdown struct {
	errAPI     error
	errMetrics error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errMetrics != nil
}
