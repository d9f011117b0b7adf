// Package simulation drives bar sources through the broker and delivers the
// resulting events to strategies.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/broker"
	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility"
)

const (
	executorComponentName = "simulation.executor"
)

type outgoing struct {
	id   bus.EventId
	data any
}

type input struct {
	series *feed.Series
	source feed.BarSource
	next   common.Bar
	ready  bool
	done   bool
}

// Executor advances every feed to the earliest pending timestamp, runs one
// broker cycle and posts the order notifications, the account snapshot and
// the new bars, in that order.
type Executor struct {
	logger *zap.Logger
	broker *broker.Broker
	router *bus.Router
	inputs []*input
	outbox []outgoing

	cycles int64
	now    time.Time
}

func NewExecutor(logger *zap.Logger, b *broker.Broker, router *bus.Router) *Executor {
	return &Executor{
		logger: logger,
		broker: b,
		router: router,
	}
}

// AddFeed attaches source to series and registers the series with the
// broker. The first feed added is the broker clock.
func (e *Executor) AddFeed(series *feed.Series, source feed.BarSource) {
	e.inputs = append(e.inputs, &input{series: series, source: source})
	e.broker.AddData(series)
}

// Run executes until every source is exhausted or ctx is done.
func (e *Executor) Run(ctx context.Context) error {
	err := <-e.router.ExecLoop(ctx, e.DoOnce)
	if errors.Is(err, feed.ErrEof) {
		e.logger.Info("simulation finished",
			zap.String("source", executorComponentName),
			zap.Int64("cycles", e.cycles),
			zap.Time("last_bar", e.now))
		return nil
	}
	return err
}

// DoOnce runs a single bar cycle. Events the router could not take yet are
// delivered first and no new bar is processed until all of them are posted.
// It returns feed.ErrEof once all sources and events are drained.
func (e *Executor) DoOnce() error {
	if !e.flush() {
		return nil
	}
	if len(e.inputs) == 0 {
		return feed.ErrEof
	}

	var (
		now   time.Time
		found bool
	)
	for _, in := range e.inputs {
		if err := e.prime(in); err != nil {
			return err
		}
		if in.ready && (!found || in.next.TimeStamp.Before(now)) {
			now = in.next.TimeStamp
			found = true
		}
	}
	if !found {
		return feed.ErrEof
	}

	var bars []common.Bar
	for _, in := range e.inputs {
		if !in.ready || !in.next.TimeStamp.Equal(now) {
			continue
		}
		if err := in.series.Push(in.next); err != nil {
			return fmt.Errorf("feed %s: %w", in.series.Name(), err)
		}
		in.ready = false
		bars = append(bars, in.next)
	}

	e.now = now
	e.cycles++

	if err := e.broker.Next(); err != nil {
		return fmt.Errorf("broker cycle at %s: %w", now, err)
	}

	tid := utility.CreateTraceID()
	for {
		o, ok := e.broker.Notification()
		if !ok {
			break
		}
		e.post(bus.OrderEvent, order.Notification{
			Source:      executorComponentName,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     tid,
			TimeStamp:   now,
			Order:       o,
		})
	}

	e.post(bus.AccountEvent, e.account(now, tid))

	for _, bar := range bars {
		e.post(bus.BarEvent, bar)
	}
	e.flush()
	return nil
}

func (e *Executor) prime(in *input) error {
	if in.ready || in.done {
		return nil
	}
	bar, err := in.source.GetNext()
	if errors.Is(err, feed.ErrEof) {
		in.done = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("feed %s: %w", in.series.Name(), err)
	}
	if bar.Symbol == "" {
		bar.Symbol = in.series.Name()
	}
	in.next = bar
	in.ready = true
	return nil
}

func (e *Executor) account(now time.Time, tid utility.TraceID) common.Account {
	b := e.broker
	return common.Account{
		Source:      executorComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     tid,
		TimeStamp:   now,
		Cash:        b.Cash(),
		Value:       b.Value(),
		ValueLever:  b.ValueLever(),
		Leverage:    b.Leverage(),
		Unrealized:  b.Unrealized(),
		FundShares:  b.FundShares(),
		FundValue:   b.FundValue(),
	}
}

func (e *Executor) post(id bus.EventId, data any) {
	e.outbox = append(e.outbox, outgoing{id, data})
}

// flush posts queued events in order until the router is full. It reports
// whether the outbox is empty.
func (e *Executor) flush() bool {
	sent := 0
	for _, ev := range e.outbox {
		if err := e.router.Post(ev.id, ev.data); err != nil {
			e.logger.Debug("router full, deferring events",
				zap.String("source", executorComponentName),
				zap.Stringer("event", ev.id),
				zap.Int("pending", len(e.outbox)-sent))
			break
		}
		sent++
	}
	clear(e.outbox[:sent])
	e.outbox = e.outbox[sent:]
	return len(e.outbox) == 0
}
