// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionOrDev(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{name: "not injected", version: "", want: "dev"},
		{name: "injected", version: "v1.2.3", want: "v1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.want, VersionOrDev())
		})
	}
}
