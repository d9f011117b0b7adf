package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func notification(t *testing.T, status func(*order.Order)) order.Notification {
	s := feed.NewSeries("abc")
	require.NoError(t, s.Push(common.Bar{
		TimeStamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      fixed.Hundred, High: fixed.Hundred, Low: fixed.Hundred, Close: fixed.Hundred,
	}))
	o := order.New(1, order.Buy, s, fixed.One)
	status(o)
	return order.Notification{Order: o}
}

func TestMiddlewareMonitor_Flags(t *testing.T) {
	tests := []struct {
		name  string
		flags MonitorFlags
		want  int
	}{
		{"none", MonitorNone, 0},
		{"bars only", MonitorBars, 1},
		{"account only", MonitorAccount, 1},
		{"all", MonitorAll, 3},
		{"rejections only", MonitorOrdersRejected, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observed()
			m := NewMonitor(logger, tt.flags)

			calls := 0
			m.WithBar(func(context.Context, common.Bar) { calls++ })(context.Background(), common.Bar{})
			m.WithAccount(func(context.Context, common.Account) { calls++ })(context.Background(), common.Account{})
			m.WithOrder(func(context.Context, order.Notification) { calls++ })(context.Background(),
				notification(t, (*order.Order).Submit))

			assert.Equal(t, 3, calls)
			assert.Equal(t, tt.want, logs.Len())
		})
	}
}

func TestMiddlewareMonitor_BarFields(t *testing.T) {
	logger, logs := observed()
	m := NewMonitor(logger, MonitorBars)
	m.WithBar(func(context.Context, common.Bar) {})(context.Background(), common.Bar{
		Symbol: "abc",
		Close:  fixed.MustParse("1.25"),
	})

	require.Equal(t, 1, logs.Len())
	bar, ok := logs.All()[0].ContextMap()["bar"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", bar["symbol"])
	assert.Equal(t, "1.25", bar["close"])
}

func TestMiddlewareMonitor_Rejections(t *testing.T) {
	logger, logs := observed()
	m := NewMonitor(logger, MonitorOrdersRejected)
	h := m.WithOrder(func(context.Context, order.Notification) {})

	h(context.Background(), notification(t, (*order.Order).Accept))
	h(context.Background(), notification(t, (*order.Order).Margin))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "order", entry.Message)
	assert.Equal(t, "margin", entry.ContextMap()["status"])
}

func TestMiddlewareTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	tm, err := NewTelemetry(reg)
	require.NoError(t, err)

	var r bus.Router
	r.OnBar = tm.WithBar(func(context.Context, common.Bar) {})
	r.OnOrder = tm.WithOrder(func(context.Context, order.Notification) {})
	r.OnAccount = tm.WithAccount(func(context.Context, common.Account) {})

	ctx := context.Background()
	r.OnBar(ctx, common.Bar{Symbol: "abc"})
	r.OnBar(ctx, common.Bar{Symbol: "abc"})
	r.OnOrder(ctx, notification(t, (*order.Order).Accept))
	r.OnOrder(ctx, notification(t, (*order.Order).Accept))
	r.OnOrder(ctx, notification(t, (*order.Order).Cancel))
	r.OnAccount(ctx, common.Account{Cash: fixed.MustParse("9000.5"), Value: fixed.MustParse("10010")})

	assert.Equal(t, 2.0, testutil.ToFloat64(tm.bars.WithLabelValues("abc")))
	assert.Equal(t, 2.0, testutil.ToFloat64(tm.notifications.WithLabelValues("accepted", "market")))
	assert.Equal(t, 1.0, testutil.ToFloat64(tm.notifications.WithLabelValues("canceled", "market")))
	assert.Equal(t, 9000.5, testutil.ToFloat64(tm.cash))
	assert.Equal(t, 10010.0, testutil.ToFloat64(tm.value))

	_, err = NewTelemetry(reg)
	assert.Error(t, err, "duplicate registration")
}

func TestMiddlewarePerformance(t *testing.T) {
	logger, logs := observed()
	p := NewPerformance(logger)

	h := Chain(p.WithBar)(func(context.Context, common.Bar) { time.Sleep(time.Millisecond) })
	h(context.Background(), common.Bar{})

	assert.GreaterOrEqual(t, p.Total(), time.Millisecond)
	p.PrintStatistics()
	assert.Equal(t, 1, logs.FilterMessage("handler performance").Len())
}
