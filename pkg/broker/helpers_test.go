package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func p(s string) fixed.Point { return fixed.MustParse(s) }

type harness struct {
	t      *testing.T
	data   *feed.Series
	broker *Broker
	ts     time.Time
	step   time.Duration
}

func newHarness(t *testing.T, options ...Option) *harness {
	data := feed.NewSeries("AAA")
	b := New(options...)
	b.AddData(data)
	return &harness{t: t, data: data, broker: b, ts: day0, step: 24 * time.Hour}
}

// bar pushes the next bar and runs the broker cycle on it.
func (h *harness) bar(o, hi, lo, c string) {
	h.t.Helper()
	require.NoError(h.t, h.push(o, hi, lo, c))
	require.NoError(h.t, h.broker.Next())
}

func (h *harness) flat(price string) {
	h.t.Helper()
	h.bar(price, price, price, price)
}

func (h *harness) push(o, hi, lo, c string) error {
	err := h.data.Push(common.Bar{
		TimeStamp: h.ts,
		Open:      p(o),
		High:      p(hi),
		Low:       p(lo),
		Close:     p(c),
		Volume:    fixed.FromInt(1000, 0),
	})
	h.ts = h.ts.Add(h.step)
	return err
}

func (h *harness) buy(size string, options ...order.Option) *order.Order {
	h.t.Helper()
	o, err := h.broker.Buy(h.data, p(size), options...)
	require.NoError(h.t, err)
	return o
}

func (h *harness) sell(size string, options ...order.Option) *order.Order {
	h.t.Helper()
	o, err := h.broker.Sell(h.data, p(size), options...)
	require.NoError(h.t, err)
	return o
}

type note struct {
	ref    uint64
	status order.Status
}

func (h *harness) drain() []note {
	var out []note
	for {
		o, ok := h.broker.Notification()
		if !ok {
			return out
		}
		out = append(out, note{ref: o.Ref, status: o.Status()})
	}
}

func limit(price string) []order.Option {
	return []order.Option{order.WithExecType(order.Limit), order.WithPrice(p(price))}
}
