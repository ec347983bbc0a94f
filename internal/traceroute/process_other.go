// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package traceroute

import "os/exec"

// configureProcess keeps the default cancellation of [exec.CommandContext],
// which kills the utility process itself.
func configureProcess(_ *exec.Cmd) {}
