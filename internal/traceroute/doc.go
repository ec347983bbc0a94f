// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute acquires the network path to a target by running an
// mtr compatible tracing utility as a subprocess and decoding its output.
//
// A [Client] runs the utility exactly once per call with a bounded timeout.
// On unix systems the utility is placed in its own process group which is
// killed as a whole when the timeout expires, so no helper processes are
// left behind.
//
// The output is decoded by [Parse]: the JSON report is tried first and the
// line based report is used as a fallback. Decoding never fails; output that
// neither decoder understands results in an empty hop list. Hops are always
// numbered 1..n in path order.
//
// Typical usage:
//
//	client := traceroute.NewClient()
//	opts := traceroute.DefaultOptions()
//	hops, err := client.Run(ctx, "example.com", &opts)
//	var execErr *traceroute.ErrExecution
//	if errors.As(err, &execErr) {
//		// the utility could not be run
//	}
package traceroute
