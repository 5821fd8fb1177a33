// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/idea-engine/internal/fault"
)

// recorder captures requested sleeps without waiting.
type recorder struct {
	delays []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testOptions(r *recorder) Options {
	return Options{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Sleep:        r.sleep,
	}
}

// failThen returns fn that fails with errs in order, then succeeds.
func failThen(calls *int, errs ...error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*calls++
		if *calls <= len(errs) {
			return "", errs[*calls-1]
		}
		return "ok", nil
	}
}

func TestDo_ImmediateSuccess(t *testing.T) {
	r := &recorder{}
	calls := 0
	got, err := Do(context.Background(), testOptions(r), failThen(&calls))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
	assert.Empty(t, r.delays)
}

func TestDo_RetriesRateLimitThenSucceeds(t *testing.T) {
	r := &recorder{}
	calls := 0
	rateLimited := &fault.ProviderError{Provider: "research", StatusCode: 429}

	got, err := Do(context.Background(), testOptions(r), failThen(&calls, rateLimited, rateLimited))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, r.delays)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	r := &recorder{}
	calls := 0
	badRequest := &fault.ProviderError{Provider: "synthesis", StatusCode: 400}

	_, err := Do(context.Background(), testOptions(r), failThen(&calls, badRequest))
	assert.Same(t, badRequest, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, r.delays)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	r := &recorder{}
	calls := 0
	unavailable := &fault.ProviderError{Provider: "research", StatusCode: 503}
	last := &fault.ProviderError{Provider: "research", StatusCode: 504}

	_, err := Do(context.Background(), testOptions(r), failThen(&calls, unavailable, unavailable, last))
	assert.Same(t, last, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, r.delays)
}

func TestDo_DelayCappedAtMax(t *testing.T) {
	r := &recorder{}
	calls := 0
	opts := testOptions(r)
	opts.MaxAttempts = 6
	timeout := &fault.ProviderError{Provider: "synthesis", Timeout: true}

	_, err := Do(context.Background(), opts, failThen(&calls, timeout, timeout, timeout, timeout, timeout))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second,
	}, r.delays)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	opts := Options{MaxAttempts: 3, InitialDelay: time.Second}
	calls := 0
	_, err := Do(ctx, opts, failThen(&calls, &fault.ProviderError{StatusCode: 503}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_PlainErrorNotRetried(t *testing.T) {
	r := &recorder{}
	calls := 0
	_, err := Do(context.Background(), testOptions(r), failThen(&calls, errors.New("parse failure")))
	assert.EqualError(t, err, "parse failure")
	assert.Equal(t, 1, calls)
}
