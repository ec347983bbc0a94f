// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package enrich

import "fmt"

// ErrPipeline is returned when the path to the target could not be traced.
// It wraps the error of the trace runner.
type ErrPipeline struct {
	Target string
	Err    error
}

func (e *ErrPipeline) Error() string {
	return fmt.Sprintf("enrichment of %q failed: %v", e.Target, e.Err)
}

func (e *ErrPipeline) Unwrap() error {
	return e.Err
}
