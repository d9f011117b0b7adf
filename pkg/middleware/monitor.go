package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorBars
	MonitorOrders
	MonitorOrdersRejected
	MonitorAccount
)

// Monitor logs the events selected by its flags before passing them on.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func (m *Monitor) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		if m.enabled(MonitorBars) {
			m.logger.Info("bar", zap.Object("bar", bar))
		}
		handler(ctx, bar)
	}
}

func (m *Monitor) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, n order.Notification) {
		rejected := n.Status() == order.Margin || n.Status() == order.Rejected
		if m.enabled(MonitorOrders) || (rejected && m.enabled(MonitorOrdersRejected)) {
			fields := []zap.Field{
				zap.Stringer("status", n.Status()),
				zap.Time("ts", n.TimeStamp),
				zap.Uint64("tid", n.TraceID),
			}
			if o := n.Order; o != nil {
				fields = append(fields,
					zap.Uint64("ref", o.Ref),
					zap.Stringer("side", o.Side),
					zap.Stringer("exec_type", o.ExecType),
					zap.Stringer("size", o.Created.Size),
					zap.Stringer("executed_size", o.Executed.Size),
					zap.Stringer("executed_price", o.Executed.Price),
					zap.Stringer("comm", o.Executed.Comm))
				if o.Data != nil {
					fields = append(fields, zap.String("data", o.Data.Name()))
				}
			}
			m.logger.Info("order", fields...)
		}
		handler(ctx, n)
	}
}

func (m *Monitor) WithAccount(handler bus.AccountEventHandler) bus.AccountEventHandler {
	return func(ctx context.Context, acc common.Account) {
		if m.enabled(MonitorAccount) {
			m.logger.Info("account", zap.Object("account", acc))
		}
		handler(ctx, acc)
	}
}
