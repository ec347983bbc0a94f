// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"

	"github.com/telekom/geotrace/internal/logger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nameHops replaces the display name of hops that are only known by their
// address with the result of a reverse lookup. Failed lookups leave the hop untouched.
func nameHops(ctx context.Context, r nameResolver, hops []Hop) {
	log := logger.FromContext(ctx)
	for i, hop := range hops {
		if !hop.Responded() || (hop.DisplayName != "" && hop.DisplayName != hop.Address) {
			continue
		}

		name, err := r.lookupName(ctx, hop.Address)
		if err != nil {
			log.DebugContext(ctx, "Reverse lookup failed", "address", hop.Address, "error", err)
			continue
		}
		hops[i].DisplayName = name
	}
}

// logHops logs the hops in a structured format.
func logHops(ctx context.Context, hops []Hop) {
	log := logger.FromContext(ctx)
	for _, hop := range hops {
		log.DebugContext(ctx, hop.String())
	}
}

// wrapError wraps an error with a message and logs it.
// It also records the error in the current OpenTelemetry span.
func wrapError(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)

	log.ErrorContext(ctx, caser.String(fmt.Sprintf(msg, args...)), "error", err)
	span.SetStatus(codes.Error, fmt.Sprintf(msg, args...))
	span.RecordError(err)
	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), err)
}
