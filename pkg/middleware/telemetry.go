package middleware

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Telemetry exposes event counters and account gauges as prometheus metrics.
type Telemetry struct {
	bars          *prometheus.CounterVec
	notifications *prometheus.CounterVec
	commission    prometheus.Counter
	cash          prometheus.Gauge
	value         prometheus.Gauge
	leverage      prometheus.Gauge
}

// NewTelemetry creates the collectors and registers them with reg.
func NewTelemetry(reg prometheus.Registerer) (*Telemetry, error) {
	t := &Telemetry{
		bars: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barbroker_bars_total",
				Help: "Bars delivered to strategies",
			},
			[]string{"symbol"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barbroker_order_notifications_total",
				Help: "Order notifications by status",
			},
			[]string{"status", "exec_type"},
		),
		commission: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "barbroker_commission_total",
				Help: "Commission charged on completed orders",
			},
		),
		cash: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barbroker_cash",
				Help: "Broker cash at the last bar",
			},
		),
		value: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barbroker_value",
				Help: "Broker value at the last bar",
			},
		),
		leverage: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barbroker_leverage",
				Help: "Portfolio leverage at the last bar",
			},
		),
	}

	for _, c := range []prometheus.Collector{t.bars, t.notifications, t.commission, t.cash, t.value, t.leverage} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Telemetry) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		t.bars.WithLabelValues(bar.Symbol).Inc()
		handler(ctx, bar)
	}
}

func (t *Telemetry) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, n order.Notification) {
		execType := ""
		if n.Order != nil {
			execType = n.Order.ExecType.String()
			if n.Status() == order.Completed {
				t.commission.Add(toFloat(n.Order.Executed.Comm))
			}
		}
		t.notifications.WithLabelValues(n.Status().String(), execType).Inc()
		handler(ctx, n)
	}
}

func (t *Telemetry) WithAccount(handler bus.AccountEventHandler) bus.AccountEventHandler {
	return func(ctx context.Context, acc common.Account) {
		t.cash.Set(toFloat(acc.Cash))
		t.value.Set(toFloat(acc.Value))
		t.leverage.Set(toFloat(acc.Leverage))
		handler(ctx, acc)
	}
}

func toFloat(p fixed.Point) float64 {
	f, _ := p.Float64()
	return f
}
