// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package netaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivate(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"127.0.0.1", true},
		{"127.255.255.254", true},
		{"10.0.0.1", true},
		{"192.168.1.1", true},
		{"172.16.0.5", true},
		{"172.31.255.255", true},
		{"169.254.1.1", true},
		{"::1", true},
		{"fe80::1", true},
		{"fe80::1%eth0", true},
		{"::ffff:10.1.2.3", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"172.32.0.1", false},
		{"172.15.255.255", false},
		{"2001:4860:4860::8888", false},
		{"100.64.0.1", false},
		{"router.example.net", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrivate(tt.addr))
		})
	}
}
