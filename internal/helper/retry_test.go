// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	errTransient := errors.New("transient")

	tests := []struct {
		name      string
		cfg       RetryConfig
		failTimes int
		wantCalls int
		wantErr   bool
	}{
		{name: "no retries, success", cfg: RetryConfig{}, failTimes: 0, wantCalls: 1},
		{name: "no retries, failure", cfg: RetryConfig{}, failTimes: 5, wantCalls: 1, wantErr: true},
		{name: "recovers on second attempt", cfg: RetryConfig{Count: 2, Delay: time.Millisecond}, failTimes: 1, wantCalls: 2},
		{name: "retries exhausted", cfg: RetryConfig{Count: 2, Delay: time.Millisecond}, failTimes: 5, wantCalls: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			effector := func(context.Context) error {
				calls++
				if calls <= tt.failTimes {
					return errTransient
				}
				return nil
			}

			err := Retry(effector, tt.cfg)(t.Context())
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.ErrorIs(t, err, errTransient)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	effector := func(context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	}

	err := Retry(effector, RetryConfig{Count: 3, Delay: time.Hour})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestGetExpBackoff(t *testing.T) {
	tests := []struct {
		iteration int
		want      time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getExpBackoff(time.Second, tt.iteration), "iteration %d", tt.iteration)
	}
}
