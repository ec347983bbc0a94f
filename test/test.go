// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test contains helpers shared by the tests of geotrace.
package test

import "testing"

// MarkAsShort marks the test as a short running unit test.
// Short tests run in every mode.
func MarkAsShort(t testing.TB) {
	t.Helper()
}

// MarkAsLongRunning marks the test as long running.
// The test is skipped when the tests are run with -short.
func MarkAsLongRunning(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping long running test in short mode")
	}
}
