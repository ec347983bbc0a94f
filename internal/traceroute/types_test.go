// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTarget(t *testing.T) {
	tests := []struct {
		target  string
		wantErr bool
	}{
		{target: "example.com"},
		{target: "8.8.8.8"},
		{target: "2001:db8::1"},
		{target: "my_host.internal"},
		{target: "xn--bcher-kva.example"},
		{target: "", wantErr: true},
		{target: "-c", wantErr: true},
		{target: "--report", wantErr: true},
		{target: "example.com; rm -rf /", wantErr: true},
		{target: "$(whoami)", wantErr: true},
		{target: "a b", wantErr: true},
		{target: "fe80::1%eth0", wantErr: true},
		{target: strings.Repeat("a", maxTargetLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			err := ValidateTarget(tt.target)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var targetErr *ErrInvalidTarget
			require.ErrorAs(t, err, &targetErr)
			assert.Equal(t, tt.target, targetErr.Target)
			assert.NotEmpty(t, targetErr.Reason)
		})
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    string
		wantErr bool
	}{
		{name: "ascii host", target: "example.com", want: "example.com"},
		{name: "unicode host", target: "bücher.example", want: "xn--bcher-kva.example"},
		{name: "invalid ascii", target: "-x", wantErr: true},
		{name: "invalid unicode", target: "bü cher.example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.target)
			if tt.wantErr {
				var targetErr *ErrInvalidTarget
				assert.ErrorAs(t, err, &targetErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(o *Options)
		wantField string
	}{
		{name: "defaults", modify: func(*Options) {}},
		{name: "no binary", modify: func(o *Options) { o.Binary = "" }, wantField: "binary"},
		{name: "no cycles", modify: func(o *Options) { o.Cycles = 0 }, wantField: "cycles"},
		{name: "no hops", modify: func(o *Options) { o.MaxHops = 0 }, wantField: "maxHops"},
		{name: "too many hops", modify: func(o *Options) { o.MaxHops = 256 }, wantField: "maxHops"},
		{name: "no timeout", modify: func(o *Options) { o.Timeout = 0 }, wantField: "timeout"},
		{
			name: "reverse dns without server",
			modify: func(o *Options) {
				o.ReverseDNS.Enabled = true
				o.ReverseDNS.Server = ""
			},
			wantField: "reverseDns.server",
		},
		{
			name: "reverse dns without timeout",
			modify: func(o *Options) {
				o.ReverseDNS.Enabled = true
				o.ReverseDNS.Timeout = 0
			},
			wantField: "reverseDns.timeout",
		},
		{
			name:   "disabled reverse dns is not validated",
			modify: func(o *Options) { o.ReverseDNS = ReverseDNSConfig{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			err := opts.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var optsErr ErrInvalidOptions
			require.ErrorAs(t, err, &optsErr)
			assert.Equal(t, tt.wantField, optsErr.Field)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "mtr", opts.Binary)
	assert.Equal(t, 3, opts.Cycles)
	assert.Equal(t, 30, opts.MaxHops)
	assert.Equal(t, 60*time.Second, opts.Timeout)
	assert.False(t, opts.ReverseDNS.Enabled)
}

func TestHop_String(t *testing.T) {
	tests := []struct {
		name string
		hop  Hop
		want string
	}{
		{
			name: "named hop",
			hop:  Hop{Index: 3, Address: "8.8.8.8", DisplayName: "dns.google", RoundTripMs: ms(12.5)},
			want: "3   dns.google" + strings.Repeat(" ", 35) + "  12.50ms",
		},
		{
			name: "silent hop",
			hop:  Hop{Index: 12},
			want: "12  *" + strings.Repeat(" ", 44) + "  -",
		},
		{
			name: "long name falls back to address",
			hop:  Hop{Index: 1, Address: "10.0.0.1", DisplayName: strings.Repeat("x", 50)},
			want: "1   10.0.0.1" + strings.Repeat(" ", 37) + "  -",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hop.String())
		})
	}
}

func TestHop_Responded(t *testing.T) {
	assert.True(t, Hop{Address: "10.0.0.1"}.Responded())
	assert.False(t, Hop{DisplayName: "x"}.Responded())
}
