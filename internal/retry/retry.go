// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs provider calls with exponential backoff on transient
// failures.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/idea-engine/internal/fault"
	"github.com/pdiddy/idea-engine/pkg/types"
)

// Options controls the retry schedule.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Name labels log lines (e.g. "market research").
	Name string

	// Sleep waits between attempts. Tests replace it to record delays.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// FromConfig builds Options from the retry section of the configuration.
func FromConfig(cfg types.RetryConfig) Options {
	return Options{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
	}
}

// Named returns a copy of o with the log label set.
func (o Options) Named(name string) Options {
	o.Name = name
	return o
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 10 * time.Second
	}
	if o.Multiplier < 1 {
		o.Multiplier = 2
	}
	if o.Sleep == nil {
		o.Sleep = Sleep
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts calls have been made. The delay starts at InitialDelay and is
// multiplied after every failed attempt, capped at MaxDelay. Non-retryable
// errors are returned unmodified on the attempt they occur; after the last
// attempt the last error is returned. Cancellation during a wait returns
// ctx.Err().
func Do[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()
	delay := opts.InitialDelay

	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				opts.Logger.Info("retry succeeded", "call", opts.Name, "attempt", attempt)
			}
			return result, nil
		}

		if !fault.IsRetryable(err) || attempt >= opts.MaxAttempts {
			return result, err
		}

		opts.Logger.Warn("transient failure, retrying",
			"call", opts.Name,
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		if serr := opts.Sleep(ctx, delay); serr != nil {
			var zero T
			return zero, serr
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}
