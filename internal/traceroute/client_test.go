// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sys/unix"
)

// fakeUtility writes an executable shell script acting as the tracing utility.
func fakeUtility(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mtr")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)) // #nosec G306
	return path
}

func testOptions(binary string) *Options {
	opts := DefaultOptions()
	opts.Binary = binary
	opts.Timeout = 10 * time.Second
	return &opts
}

func TestClient_Run(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    []Hop
		wantErr error
	}{
		{
			name: "structured output",
			script: `cat <<'EOF'
{"report": {"hubs": [
  {"count": 1, "host": "10.0.0.1", "Avg": 0.5},
  {"count": 2, "host": "???"},
  {"count": 3, "host": "dns.google", "ip": "8.8.8.8", "Avg": 9.75}
]}}
EOF
`,
			want: []Hop{
				{Index: 1, Address: "10.0.0.1", DisplayName: "10.0.0.1", RoundTripMs: ms(0.5)},
				{Index: 2},
				{Index: 3, Address: "8.8.8.8", DisplayName: "dns.google", RoundTripMs: ms(9.75)},
			},
		},
		{
			name: "text output",
			script: `echo "HOST: probe   Loss%   Snt"
echo "  1.|-- 10.0.0.1   0.0%   3   1.25 ms"
echo "  2.|-- dns.google (8.8.8.8)   0.0%   3   9 ms"
`,
			want: []Hop{
				{Index: 1, Address: "10.0.0.1", DisplayName: "10.0.0.1", RoundTripMs: ms(1.25)},
				{Index: 2, Address: "8.8.8.8", DisplayName: "dns.google", RoundTripMs: ms(9)},
			},
		},
		{
			name:   "diagnostics on stderr are no failure",
			script: "echo 'mtr: warning' >&2\necho '  1.|-- 10.0.0.1'\n",
			want:   []Hop{{Index: 1, Address: "10.0.0.1", DisplayName: "10.0.0.1"}},
		},
		{
			name:   "abnormal exit with output is parsed",
			script: "echo '  1.|-- 10.0.0.1'\nexit 1\n",
			want:   []Hop{{Index: 1, Address: "10.0.0.1", DisplayName: "10.0.0.1"}},
		},
		{
			name:   "unrecognized output yields no hops",
			script: "echo 'nothing to see'\n",
			want:   []Hop{},
		},
		{
			name:    "abnormal exit with unrecognized output",
			script:  "echo 'mtr: unable to get raw sockets.'\nexit 1\n",
			wantErr: ErrNoOutput,
		},
		{
			name:    "abnormal exit with an empty report",
			script:  "echo '{\"report\": {\"hubs\": []}}'\nexit 1\n",
			wantErr: ErrNoOutput,
		},
		{
			name:    "abnormal exit without output",
			script:  "echo 'mtr: unable to get raw sockets' >&2\nexit 3\n",
			wantErr: ErrNoOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient()
			hops, err := c.Run(context.Background(), "example.com", testOptions(fakeUtility(t, tt.script)))

			if tt.wantErr != nil {
				var execErr *ErrExecution
				require.ErrorAs(t, err, &execErr)
				assert.Equal(t, "example.com", execErr.Target)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, hops)
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, hops); diff != "" {
				t.Errorf("Run() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_Run_Arguments(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	binary := fakeUtility(t, fmt.Sprintf("printf '%%s\\n' \"$@\" > %q\n", argsFile))

	opts := testOptions(binary)
	opts.Cycles = 5
	opts.MaxHops = 12

	_, err := NewClient().Run(context.Background(), "dns.google", opts)
	require.NoError(t, err)

	raw, err := os.ReadFile(argsFile) // #nosec G304
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, []string{"--json", "--no-dns", "--report-cycles", "5", "--max-ttl", "12", "dns.google"}, args)
}

func TestClient_Run_MissingUtility(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "does-not-exist"))

	hops, err := NewClient().Run(context.Background(), "example.com", opts)

	var execErr *ErrExecution
	require.ErrorAs(t, err, &execErr)
	assert.Nil(t, hops)
}

func TestClient_Run_InvalidTarget(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "called")
	binary := fakeUtility(t, fmt.Sprintf("touch %q\n", marker))

	for _, target := range []string{"", "-rf", "host;reboot", "$(id)", "a b"} {
		_, err := NewClient().Run(context.Background(), target, testOptions(binary))

		var targetErr *ErrInvalidTarget
		assert.ErrorAs(t, err, &targetErr, "target %q", target)
	}
	assert.NoFileExists(t, marker)
}

func TestClient_Run_Timeout(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "pid")
	childFile := filepath.Join(dir, "child")
	// The script spawns a helper like mtr does with mtr-packet.
	binary := fakeUtility(t, fmt.Sprintf("echo $$ > %q\nsleep 30 &\necho $! > %q\nwait\n", pidFile, childFile))

	opts := testOptions(binary)
	opts.Timeout = 300 * time.Millisecond

	start := time.Now()
	hops, err := NewClient().Run(context.Background(), "example.com", opts)
	elapsed := time.Since(start)

	var execErr *ErrExecution
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Nil(t, hops)
	assert.Less(t, elapsed, 5*time.Second, "runner did not return promptly after the timeout")

	for _, file := range []string{pidFile, childFile} {
		pid := readPID(t, file)
		assert.Eventually(t, func() bool {
			return processGone(pid)
		}, 3*time.Second, 20*time.Millisecond, "process %d from %s is still running", pid, filepath.Base(file))
	}
}

func TestClient_Run_Canceled(t *testing.T) {
	binary := fakeUtility(t, "sleep 30\n")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	_, err := NewClient().Run(ctx, "example.com", testOptions(binary))

	var execErr *ErrExecution
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestClient_Run_ReverseDNS(t *testing.T) {
	binary := fakeUtility(t, `cat <<'EOF'
{"report": {"hubs": [
  {"count": 1, "host": "10.0.0.1"},
  {"count": 2, "host": "edge.example.net", "ip": "203.0.113.1"},
  {"count": 3, "host": "???"},
  {"count": 4, "host": "198.51.100.1"}
]}}
EOF
`)

	var lookups []string
	c := &mtrClient{
		names: func(ReverseDNSConfig) nameResolver {
			return nameResolverFunc(func(_ context.Context, addr string) (string, error) {
				lookups = append(lookups, addr)
				if addr == "10.0.0.1" {
					return "gw.lan", nil
				}
				return "", errNoPTR
			})
		},
		tracer: noop.NewTracerProvider().Tracer("test"),
	}

	opts := testOptions(binary)
	opts.ReverseDNS.Enabled = true

	hops, err := c.Run(context.Background(), "example.com", opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1", "198.51.100.1"}, lookups)
	require.Len(t, hops, 4)
	assert.Equal(t, "gw.lan", hops[0].DisplayName)
	assert.Equal(t, "10.0.0.1", hops[0].Address)
	assert.Equal(t, "edge.example.net", hops[1].DisplayName)
	assert.Empty(t, hops[2].DisplayName)
	assert.Equal(t, "198.51.100.1", hops[3].DisplayName)
}

func readPID(t *testing.T, path string) int {
	t.Helper()
	raw, err := os.ReadFile(path) // #nosec G304
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)
	return pid
}

// processGone reports whether the process no longer runs. A zombie waiting
// to be reaped by its new parent counts as gone.
func processGone(pid int) bool {
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return true
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	// The state follows the parenthesized command name.
	fields := strings.Fields(string(stat[strings.LastIndexByte(string(stat), ')')+1:]))
	return len(fields) > 0 && fields[0] == "Z"
}
