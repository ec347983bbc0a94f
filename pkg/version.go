// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains metadata about geotrace.
package pkg

// Version is the current version of geotrace.
// It is set by the main package from the version injected at build time.
var Version string

// devVersion is reported by binaries built without a version.
const devVersion = "dev"

// VersionOrDev returns [Version] or "dev" if no version was injected.
func VersionOrDev() string {
	if Version == "" {
		return devVersion
	}
	return Version
}
