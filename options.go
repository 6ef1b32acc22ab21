// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsyncdispatch

import (
	"time"

	"github.com/joeycumines/logiface"
)

// dispatcherOptions holds configuration for New.
type dispatcherOptions struct {
	logger        *logiface.Logger[logiface.Event]
	clock         Clock
	metrics       bool
	lateThreshold time.Duration
}

// DispatcherOption configures a Dispatcher instance.
type DispatcherOption interface {
	applyDispatcher(*dispatcherOptions)
}

// dispatcherOptionImpl implements DispatcherOption.
type dispatcherOptionImpl struct {
	applyDispatcherFunc func(*dispatcherOptions)
}

func (x *dispatcherOptionImpl) applyDispatcher(opts *dispatcherOptions) {
	x.applyDispatcherFunc(opts)
}

// WithLogger attaches a structured logger to the dispatcher. A nil logger
// (the default) disables all logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) DispatcherOption {
	return &dispatcherOptionImpl{func(opts *dispatcherOptions) {
		opts.logger = logger
	}}
}

// WithClock substitutes the dispatcher's time source. Intended for tests;
// the default uses [time.Now].
func WithClock(clock Clock) DispatcherOption {
	return &dispatcherOptionImpl{func(opts *dispatcherOptions) {
		opts.clock = clock
	}}
}

// WithMetrics enables runtime metrics collection, accessed via
// [Dispatcher.Metrics]. Adds a small per-fire overhead.
func WithMetrics(enabled bool) DispatcherOption {
	return &dispatcherOptionImpl{func(opts *dispatcherOptions) {
		opts.metrics = enabled
	}}
}

// WithLateWarning sets the wakeup latency beyond which a fire is logged as
// late, rate limited per callback name. Zero or negative restores the
// default of 1ms.
func WithLateWarning(threshold time.Duration) DispatcherOption {
	return &dispatcherOptionImpl{func(opts *dispatcherOptions) {
		opts.lateThreshold = threshold
	}}
}

// resolveDispatcherOptions applies DispatcherOption instances over defaults.
func resolveDispatcherOptions(opts []DispatcherOption) *dispatcherOptions {
	cfg := &dispatcherOptions{
		clock:         systemClock{},
		lateThreshold: time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyDispatcher(cfg)
	}
	if cfg.lateThreshold <= 0 {
		cfg.lateThreshold = time.Millisecond
	}
	return cfg
}
