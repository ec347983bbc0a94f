// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/telekom/geotrace/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Client = (*mtrClient)(nil)

// waitDelay bounds how long the runner waits for the output pipes
// to be closed after the utility was killed.
const waitDelay = time.Second

// Client is able to trace the network path to a target.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Run traces the path to the target and returns the ordered hops.
	// It returns an *ErrExecution if the tracing utility could not be run.
	Run(ctx context.Context, target string, opts *Options) ([]Hop, error)
}

// mtrClient runs an mtr compatible utility as a subprocess.
type mtrClient struct {
	// names resolves host names of hops the utility did not name.
	names func(opts ReverseDNSConfig) nameResolver
	tracer trace.Tracer
}

// NewClient creates a new [Client] which runs the configured tracing utility.
func NewClient() Client {
	return &mtrClient{
		names:  newDNSResolver,
		tracer: otel.Tracer("traceroute"),
	}
}

// Run executes the tracing utility once for the target.
// The utility is killed together with all processes it spawned when the
// timeout of the options or the context expires.
func (c *mtrClient) Run(ctx context.Context, target string, opts *Options) ([]Hop, error) {
	ctx, span := c.tracer.Start(ctx, "traceroute.run", trace.WithAttributes(
		attribute.String("traceroute.target", target),
		attribute.String("traceroute.binary", opts.Binary),
		attribute.Int("traceroute.max_hops", opts.MaxHops),
		attribute.Stringer("traceroute.timeout", opts.Timeout),
	))
	defer span.End()
	log := logger.FromContext(ctx).With("target", target)

	if err := ValidateTarget(target); err != nil {
		return nil, wrapError(ctx, err, "refusing to trace invalid target")
	}

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, opts.Binary, opts.args(target)...) // #nosec G204 // target is validated above
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	log.DebugContext(ctx, "Starting trace", "command", cmd.String())
	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		log.WarnContext(ctx, "Trace utility wrote to stderr", "stderr", msg)
	}

	hops, format := parse(stdout.Bytes())

	if err != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return nil, wrapError(ctx, &ErrExecution{Target: target, Err: fmt.Errorf("%w after %v", ErrTimeout, opts.Timeout)}, "trace exceeded timeout")
		case ctx.Err() != nil:
			return nil, wrapError(ctx, &ErrExecution{Target: target, Err: ctx.Err()}, "trace was canceled")
		}

		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, wrapError(ctx, &ErrExecution{Target: target, Err: err}, "failed to run trace utility")
		}
		// Output of a failed run only counts if it describes a route.
		if len(hops) == 0 {
			return nil, wrapError(ctx, &ErrExecution{Target: target, Err: fmt.Errorf("%w: %v", ErrNoOutput, err)}, "trace utility failed")
		}
		log.WarnContext(ctx, "Trace utility exited abnormally, using its output", "error", err, "hops", len(hops))
		span.AddEvent("trace utility exited abnormally", trace.WithAttributes(
			attribute.Int("traceroute.exit_code", exitErr.ExitCode()),
		))
	}

	if format == FormatText {
		log.DebugContext(ctx, "Structured decoding failed, used text decoder")
	}
	span.SetAttributes(
		attribute.String("traceroute.format", string(format)),
		attribute.Int("traceroute.hops", len(hops)),
	)

	if opts.ReverseDNS.Enabled {
		nameHops(ctx, c.names(opts.ReverseDNS), hops)
	}

	log.DebugContext(ctx, "Trace finished", "hops", len(hops), "format", format, "duration", elapsed)
	logHops(ctx, hops)
	span.SetStatus(codes.Ok, "")
	return hops, nil
}
