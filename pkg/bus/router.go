// Package bus delivers simulation events to strategy handlers.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
)

var ErrCapacityReached = errors.New("event capacity reached")

type event struct {
	id   EventId
	data any
}

type Router struct {
	logger *zap.Logger
	events chan event

	OnBar     BarEventHandler
	OnOrder   OrderEventHandler
	OnAccount AccountEventHandler

	runTime       atomic.Int64
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(logger *zap.Logger, eventCapacity int) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		logger: logger,
		events: make(chan event, eventCapacity),
	}
}

// Post queues an event without blocking.
func (r *Router) Post(id EventId, data any) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return ErrCapacityReached
	}
}

// Exec dispatches events until ctx is done.
func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		finish := r.start(done)

		for {
			select {
			case <-ctx.Done():
				finish(ctx.Err())
				return
			case ev := <-r.events:
				r.handle(ctx, ev)
			}
		}
	}()
	return done
}

// ExecLoop drains pending events and calls doOnceCb whenever the queue is
// empty. The loop stops on the first error from doOnceCb or when ctx is done.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		finish := r.start(done)

		for {
			select {
			case <-ctx.Done():
				finish(ctx.Err())
				return
			case ev := <-r.events:
				r.handle(ctx, ev)
			default:
				if err := doOnceCb(); err != nil {
					r.drain(ctx)
					finish(err)
					return
				}
			}
		}
	}()
	return done
}

func (r *Router) Statistics() Statistics {
	runTime := time.Duration(r.runTime.Load())
	s := Statistics{
		RunTime:       runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
	}
	if runTime > 0 {
		s.Throughput = float64(s.DispatchCount) / runTime.Seconds()
	}
	return s
}

// start resets the run statistics and returns the function reporting the
// loop result.
func (r *Router) start(done chan<- error) func(error) {
	r.runTime.Store(0)
	r.dispatchCount.Store(0)
	r.dispatchFails.Store(0)
	begin := time.Now()
	return func(err error) {
		r.runTime.Store(int64(time.Since(begin)))
		done <- err
	}
}

// drain dispatches whatever the last cycle posted.
func (r *Router) drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.handle(ctx, ev)
		default:
			return
		}
	}
}

func (r *Router) handle(ctx context.Context, ev event) {
	r.dispatchCount.Add(1)
	if err := r.dispatch(ctx, ev); err != nil {
		r.dispatchFails.Add(1)
		r.logger.Warn("dispatch failed",
			zap.Error(err),
			zap.Stringer("event", ev.id))
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case BarEvent:
		bar, ok := ev.data.(common.Bar)
		if !ok {
			return errors.New("invalid type assertion for bar event")
		}
		if r.OnBar != nil {
			r.OnBar(ctx, bar)
		}
	case OrderEvent:
		n, ok := ev.data.(order.Notification)
		if !ok {
			return errors.New("invalid type assertion for order event")
		}
		if r.OnOrder != nil {
			r.OnOrder(ctx, n)
		}
	case AccountEvent:
		acc, ok := ev.data.(common.Account)
		if !ok {
			return errors.New("invalid type assertion for account event")
		}
		if r.OnAccount != nil {
			r.OnAccount(ctx, acc)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
