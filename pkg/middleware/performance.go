package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
)

// Performance accumulates the time spent inside strategy handlers.
type Performance struct {
	logger *zap.Logger

	barHandlerDur     time.Duration
	orderHandlerDur   time.Duration
	accountHandlerDur time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		start := time.Now()
		handler(ctx, bar)
		p.barHandlerDur += time.Since(start)
	}
}

func (p *Performance) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, n order.Notification) {
		start := time.Now()
		handler(ctx, n)
		p.orderHandlerDur += time.Since(start)
	}
}

func (p *Performance) WithAccount(handler bus.AccountEventHandler) bus.AccountEventHandler {
	return func(ctx context.Context, acc common.Account) {
		start := time.Now()
		handler(ctx, acc)
		p.accountHandlerDur += time.Since(start)
	}
}

func (p *Performance) Total() time.Duration {
	return p.barHandlerDur + p.orderHandlerDur + p.accountHandlerDur
}

func (p *Performance) PrintStatistics() {
	p.logger.Info("handler performance",
		zap.Duration("bar", p.barHandlerDur),
		zap.Duration("order", p.orderHandlerDur),
		zap.Duration("account", p.accountHandlerDur),
		zap.Duration("total", p.Total()))
}
