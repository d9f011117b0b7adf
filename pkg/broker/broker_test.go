package broker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

func TestBroker_Defaults(t *testing.T) {
	b := New()

	assert.True(t, b.Cash().Eq(p("10000")))
	assert.True(t, b.StartingCash().Eq(p("10000")))
	assert.True(t, b.Value().Eq(p("10000")))
	assert.True(t, b.Leverage().Eq(fixed.One))
	assert.True(t, b.FundValue().Eq(p("100")))
	assert.True(t, b.FundShares().Eq(p("100")))
	assert.False(t, b.FundMode())
}

func TestBroker_MarketRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.bar("100", "105", "98", "102")

	buy := h.buy("10")
	assert.Equal(t, []note{{1, order.Submitted}}, h.drain())

	h.bar("104", "106", "103", "105")
	assert.Equal(t, []note{{1, order.Accepted}, {1, order.Completed}}, h.drain())
	assert.True(t, buy.Executed.Price.Eq(p("104")))

	pos := h.broker.Position(h.data)
	assert.True(t, pos.Size.Eq(p("10")))
	assert.True(t, pos.Price.Eq(p("104")))
	assert.True(t, h.broker.Cash().Eq(p("8960")))
	assert.True(t, h.broker.Value().Eq(p("10010")))
	assert.True(t, h.broker.Unrealized().Eq(p("10")))

	sell := h.sell("10")
	h.bar("110", "111", "108", "109")

	assert.Equal(t, order.Completed, sell.Status())
	assert.True(t, sell.Executed.PnL.Eq(p("60")))
	assert.False(t, pos.IsOpen())
	assert.True(t, h.broker.Cash().Eq(p("10060")))
	assert.True(t, h.broker.Value().Eq(p("10060")))
}

func TestBroker_MarketWaitsForNextBar(t *testing.T) {
	h := newHarness(t, WithCheckSubmit(false))
	h.bar("100", "105", "98", "102")
	o := h.buy("1")

	assert.Equal(t, order.Accepted, o.Status())
	require.NoError(t, h.broker.Next())
	assert.Equal(t, order.Accepted, o.Status())

	h.flat("101")
	assert.Equal(t, order.Completed, o.Status())
}

func TestBroker_LimitFillsAtLimit(t *testing.T) {
	h := newHarness(t, WithSlippagePerc(p("0.01")))
	h.flat("100")
	o := h.buy("10", limit("99")...)

	h.bar("100", "101", "97", "100")

	assert.Equal(t, order.Completed, o.Status())
	assert.True(t, o.Executed.Price.Eq(p("99")))
	assert.True(t, h.broker.Cash().Eq(p("9010")))
}

func TestBroker_LimitGap(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	buy := h.buy("1", limit("99")...)
	sell := h.sell("1", limit("101")...)

	h.bar("98", "103", "97", "100")

	assert.True(t, buy.Executed.Price.Eq(p("98")))
	assert.True(t, sell.Executed.Price.Eq(p("101")))
}

func TestBroker_LimitUntouched(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.buy("1", limit("95")...)

	h.bar("100", "101", "96", "100")

	assert.Equal(t, order.Accepted, o.Status())
	assert.Len(t, h.broker.OrdersOpen(false), 1)
}

func TestBroker_CheatOnClose(t *testing.T) {
	h := newHarness(t, WithCheatOnClose(true))
	h.bar("100", "105", "98", "102")
	created := h.data.DateTime(0)

	coc := h.buy("10")
	optOut := h.buy("1", order.WithInfo("coc", false))

	h.bar("104", "106", "103", "105")

	assert.True(t, coc.Executed.Price.Eq(p("102")))
	assert.Equal(t, created, coc.Executed.DateTime)
	assert.True(t, optOut.Executed.Price.Eq(p("104")))
	assert.True(t, h.broker.Cash().Eq(p("8876")))
}

func TestBroker_CheatOnOpen(t *testing.T) {
	h := newHarness(t, WithCheatOnOpen(true), WithCheckSubmit(false))
	require.NoError(t, h.push("100", "105", "98", "102"))
	o := h.buy("1")
	require.NoError(t, h.broker.Next())

	assert.Equal(t, order.Completed, o.Status())
	assert.True(t, o.Executed.Price.Eq(p("100")))
}

func TestBroker_Stop(t *testing.T) {
	h := newHarness(t, WithSlippagePerc(p("0.01")))
	h.flat("100")
	intrabar := h.sell("1", order.WithExecType(order.Stop), order.WithPrice(p("95")))
	gap := h.buy("1", order.WithExecType(order.Stop), order.WithPrice(p("105")))

	h.bar("107", "108", "94", "100")

	assert.True(t, intrabar.Executed.Price.Eq(p("95")))
	assert.True(t, gap.Executed.Price.Eq(p("107")))
}

func TestBroker_StopLimitArmsBeforeFilling(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.buy("1",
		order.WithExecType(order.StopLimit),
		order.WithPrice(p("105")),
		order.WithPriceLimit(p("104")))

	h.bar("100", "106", "99", "105")
	assert.True(t, o.Triggered)
	assert.Equal(t, order.Accepted, o.Status())

	h.bar("103", "104", "102", "103")
	assert.Equal(t, order.Completed, o.Status())
	assert.True(t, o.Executed.Price.Eq(p("103")))
}

func TestBroker_StopLimitIntrabarFill(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.sell("1",
		order.WithExecType(order.StopLimit),
		order.WithPrice(p("95")),
		order.WithPriceLimit(p("94")))

	h.bar("100", "101", "93", "97")

	assert.True(t, o.Triggered)
	assert.True(t, o.Executed.Price.Eq(p("95")))
}

func TestBroker_StopTrail(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	h.buy("1")
	h.flat("100")

	stop := h.sell("1", order.WithExecType(order.StopTrail), order.WithTrailAmount(p("5")))
	assert.True(t, stop.Created.Price.Eq(p("95")))

	h.bar("100", "111", "100", "110")
	assert.True(t, stop.Created.Price.Eq(p("105")))

	h.bar("108", "108", "104", "104")
	assert.Equal(t, order.Completed, stop.Status())
	assert.True(t, stop.Executed.Price.Eq(p("105")))
}

func TestBroker_CloseOrderOnSessionEnd(t *testing.T) {
	data := feed.NewSeries("AAA", feed.WithSessionEnd(16, 0, 0))
	h := &harness{t: t, data: data, broker: New(), ts: day0.Add(14 * time.Hour), step: time.Hour}
	h.broker.AddData(data)

	h.flat("100")
	o := h.buy("1", order.WithExecType(order.Close))

	h.flat("101")
	assert.Equal(t, order.Accepted, o.Status())

	h.ts = day0.Add(34 * time.Hour)
	h.flat("90")
	assert.Equal(t, order.Completed, o.Status())
	assert.True(t, o.Executed.Price.Eq(p("101")))
	assert.Equal(t, day0.Add(15*time.Hour), o.Executed.DateTime)
}

func TestBroker_Expiry(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.buy("1", append(limit("50"), order.WithValid(day0.Add(24*time.Hour)))...)
	h.drain()

	h.flat("100")
	assert.Equal(t, order.Accepted, o.Status())
	h.drain()

	h.flat("100")
	assert.Equal(t, order.Expired, o.Status())
	assert.Equal(t, []note{{1, order.Expired}}, h.drain())
	assert.Empty(t, h.broker.OrdersOpen(false))
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.buy("1", limit("50")...)

	assert.False(t, h.broker.Cancel(o))

	h.flat("100")
	h.drain()

	assert.True(t, h.broker.Cancel(o))
	assert.Equal(t, []note{{1, order.Canceled}}, h.drain())

	assert.False(t, h.broker.Cancel(o))
	assert.Empty(t, h.drain())
	assert.Equal(t, order.Canceled, o.Status())
}

func TestBroker_AdmissionMargin(t *testing.T) {
	h := newHarness(t, WithCash(p("1000")))
	h.flat("100")
	o := h.buy("20")

	h.flat("100")

	assert.Equal(t, order.Margin, o.Status())
	assert.Equal(t, []note{{1, order.Submitted}, {1, order.Margin}}, h.drain())
	assert.True(t, h.broker.Cash().Eq(p("1000")))
}

func TestBroker_AdmissionSharesCash(t *testing.T) {
	h := newHarness(t, WithCash(p("1500")))
	h.flat("100")
	first := h.buy("10")
	second := h.buy("10")
	third := h.buy("3")

	h.flat("100")

	assert.Equal(t, order.Completed, first.Status())
	assert.Equal(t, order.Margin, second.Status())
	assert.Equal(t, order.Margin, third.Status())
}

func TestBroker_OpeningLegMargin(t *testing.T) {
	h := newHarness(t, WithCash(p("1000")), WithCheckSubmit(false))
	h.flat("100")
	o := h.buy("20")

	h.flat("100")

	assert.Equal(t, order.Margin, o.Status())
	assert.Equal(t, []note{{1, order.Accepted}, {1, order.Margin}}, h.drain())
	assert.False(t, h.broker.Position(h.data).IsOpen())
	assert.True(t, h.broker.Cash().Eq(p("1000")))
}

func TestBroker_ReversalKeepsClosingLeg(t *testing.T) {
	h := newHarness(t, WithCash(p("1000")), WithCheckSubmit(false), WithShortCash(false))
	h.flat("100")
	h.buy("5")
	h.flat("100")
	require.True(t, h.broker.Cash().Eq(p("500")))

	o := h.sell("20")
	h.flat("100")

	assert.Equal(t, order.Margin, o.Status())
	assert.True(t, o.Executed.Size.Eq(p("-5")))
	assert.False(t, h.broker.Position(h.data).IsOpen())
	assert.True(t, h.broker.Cash().Eq(p("1000")))
}

func TestBroker_OCO(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o1 := h.buy("10", limit("95")...)
	o2 := h.buy("10", append(limit("90"), order.WithOCO(o1))...)
	o3 := h.buy("5", append(limit("85"), order.WithOCO(o2))...)
	h.drain()

	h.bar("100", "100", "94", "96")

	assert.Equal(t, order.Completed, o1.Status())
	assert.Equal(t, order.Canceled, o2.Status())
	assert.Equal(t, order.Canceled, o3.Status())
	assert.Equal(t, []note{
		{1, order.Accepted}, {2, order.Accepted}, {3, order.Accepted},
		{1, order.Completed}, {3, order.Canceled}, {2, order.Canceled},
	}, h.drain())
}

func TestBroker_OCOCancel(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o1 := h.buy("1", limit("50")...)
	o2 := h.sell("1", append(limit("150"), order.WithOCO(o1))...)
	h.flat("100")

	assert.True(t, h.broker.Cancel(o2))
	assert.Equal(t, order.Canceled, o1.Status())
}

func bracket(h *harness, entry []order.Option) (*order.Order, *order.Order, *order.Order) {
	parent := h.buy("10", append(entry, order.WithTransmit(false))...)
	stop := h.sell("10",
		order.WithExecType(order.Stop), order.WithPrice(p("95")),
		order.WithParent(parent), order.WithTransmit(false))
	take := h.sell("10",
		order.WithExecType(order.Limit), order.WithPrice(p("110")),
		order.WithParent(parent))
	return parent, stop, take
}

func TestBroker_BracketTransmitsTogether(t *testing.T) {
	h := newHarness(t)
	h.flat("100")

	parent := h.buy("10", append(limit("99"), order.WithTransmit(false))...)
	assert.Empty(t, h.drain())
	assert.Equal(t, order.Created, parent.Status())

	stop := h.sell("10",
		order.WithExecType(order.Stop), order.WithPrice(p("95")),
		order.WithParent(parent), order.WithTransmit(false))
	assert.Empty(t, h.drain())

	last, err := h.broker.Sell(h.data, p("10"),
		order.WithExecType(order.Limit), order.WithPrice(p("110")),
		order.WithParent(parent))
	require.NoError(t, err)

	assert.Equal(t, []note{{1, order.Submitted}, {2, order.Submitted}, {3, order.Submitted}}, h.drain())
	assert.Equal(t, uint64(3), last.Ref)
	assert.False(t, stop.Active())
	assert.False(t, last.Active())
}

func TestBroker_BracketCancelEntry(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	parent, stop, take := bracket(h, limit("99"))
	h.flat("100")
	h.drain()

	assert.True(t, h.broker.Cancel(parent))

	assert.Equal(t, order.Canceled, parent.Status())
	assert.Equal(t, order.Canceled, stop.Status())
	assert.Equal(t, order.Canceled, take.Status())
	assert.Equal(t, []note{{1, order.Canceled}, {2, order.Canceled}, {3, order.Canceled}}, h.drain())

	assert.False(t, h.broker.Cancel(stop))
	assert.Empty(t, h.drain())
}

func TestBroker_BracketChildrenActivateNextBar(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	parent, stop, take := bracket(h, nil)

	h.bar("100", "111", "99", "100")
	assert.Equal(t, order.Completed, parent.Status())
	assert.Equal(t, order.Accepted, take.Status())
	assert.False(t, take.Active())
	assert.True(t, h.broker.Cash().Eq(p("9000")))

	h.bar("100", "112", "99", "105")
	assert.Equal(t, order.Completed, take.Status())
	assert.True(t, take.Executed.Price.Eq(p("110")))
	assert.Equal(t, order.Canceled, stop.Status())
	assert.Empty(t, h.broker.OrdersOpen(false))
	assert.True(t, h.broker.Cash().Eq(p("10100")))
}

func TestBroker_BracketParentMarginRejectsChildren(t *testing.T) {
	h := newHarness(t, WithCash(p("500")))
	h.flat("100")
	parent, stop, take := bracket(h, nil)

	h.flat("100")

	assert.Equal(t, order.Margin, parent.Status())
	assert.Equal(t, order.Rejected, stop.Status())
	assert.Equal(t, order.Rejected, take.Status())
}

func TestBroker_ChildOfUnknownParentIsRejected(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	ghost := &order.Order{Ref: 999}

	o := h.sell("1", order.WithParent(ghost))

	assert.Equal(t, order.Rejected, o.Status())
	assert.Equal(t, []note{{1, order.Rejected}}, h.drain())
}

func TestBroker_FuturesMarkToMarket(t *testing.T) {
	scheme := commission.NewScheme(commission.WithMargin(p("500")), commission.WithMult(p("10")))
	h := newHarness(t, WithCommission("", scheme))
	h.flat("100")
	h.buy("2")

	h.flat("100")
	assert.True(t, h.broker.Cash().Eq(p("9000")))
	assert.True(t, h.broker.Value().Eq(p("10000")))

	h.flat("100")
	assert.True(t, h.broker.Cash().Eq(p("9000")))

	h.flat("105")
	assert.True(t, h.broker.Cash().Eq(p("9100")))
	assert.True(t, h.broker.Value().Eq(p("10100")))

	sell := h.sell("2")
	h.flat("105")
	assert.Equal(t, order.Completed, sell.Status())
	assert.True(t, sell.Executed.PnL.Eq(p("100")))
	assert.True(t, h.broker.Cash().Eq(p("10100")))
	assert.True(t, h.broker.Value().Eq(p("10100")))
}

func TestBroker_CreditInterestToPnL(t *testing.T) {
	scheme := commission.NewScheme(commission.WithInterest(p("0.365")))
	h := newHarness(t, WithCommission("", scheme))
	h.flat("100")
	h.sell("10")

	h.flat("100")
	assert.True(t, h.broker.Cash().Eq(p("11000")))

	h.flat("100")
	assert.True(t, h.broker.Cash().Eq(p("10999")))

	cover := h.buy("10")
	h.flat("100")

	assert.Equal(t, order.Completed, cover.Status())
	assert.True(t, cover.Executed.Comm.Eq(p("2")))
	assert.True(t, h.broker.Cash().Eq(p("9998")))
}

func TestBroker_Filler(t *testing.T) {
	h := newHarness(t, WithFiller(FixedSize{Size: p("4")}))
	h.flat("100")
	o := h.buy("10")

	h.flat("100")
	assert.Equal(t, order.Partial, o.Status())
	assert.True(t, o.Executed.RemSize.Eq(p("6")))

	h.flat("100")
	h.flat("100")
	assert.Equal(t, order.Completed, o.Status())
	assert.Len(t, o.Executed.Bits, 3)
}

func TestBroker_FillerNegativeSize(t *testing.T) {
	filler := FillerFunc(func(*order.Order, fixed.Point, int) fixed.Point { return p("-1") })
	h := newHarness(t, WithFiller(filler))
	h.flat("100")
	h.buy("1")

	require.NoError(t, h.push("100", "100", "100", "100"))
	err := h.broker.Next()
	assert.True(t, errors.Is(err, ErrInvalidFillerSize))
	assert.Len(t, h.broker.OrdersOpen(false), 1)
}

func TestBroker_Fillers(t *testing.T) {
	h := newHarness(t)
	h.bar("100", "100.04", "100", "100")
	o := order.New(1, order.Sell, h.data, p("900"))

	assert.True(t, NewFixedBarPerc().Fill(o, p("100"), 0).Eq(p("900")))
	assert.True(t, FixedBarPerc{Perc: p("10")}.Fill(o, p("100"), 0).Eq(p("100")))
	assert.True(t, NewBarPointPerc().Fill(o, p("100"), 0).Eq(p("200")))
	assert.True(t, FixedSize{}.Fill(o, p("100"), 0).Eq(p("900")))
	assert.True(t, BarPointPerc{Perc: p("50")}.Fill(o, p("100"), 0).Eq(p("500")))
}

func TestBroker_FillerZeroMinMove(t *testing.T) {
	h := newHarness(t, WithFiller(BarPointPerc{Perc: fixed.Hundred}))
	h.flat("100")
	o := h.buy("5")

	require.NotPanics(t, func() { h.bar("100", "101", "99", "100") })
	assert.Equal(t, order.Completed, o.Status())
	assert.True(t, h.broker.Position(h.data).Size.Eq(p("5")))
}

func TestBroker_FillerOversize(t *testing.T) {
	filler := FillerFunc(func(*order.Order, fixed.Point, int) fixed.Point { return p("50") })
	h := newHarness(t, WithFiller(filler))
	h.flat("100")
	o := h.buy("5")

	require.NoError(t, h.push("100", "100", "100", "100"))
	err := h.broker.Next()
	assert.ErrorIs(t, err, ErrInvalidFillerSize)
	assert.True(t, o.Executed.RemSize.Eq(p("5")))
	assert.True(t, h.broker.Position(h.data).Size.IsZero())
}

func TestBroker_MissingCommission(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	h.broker.RemoveCommission("")

	_, err := h.broker.Buy(h.data, p("1"))
	assert.True(t, errors.Is(err, ErrNoCommissionInfo))

	h.broker.SetCommission("AAA", commission.NewScheme())
	_, err = h.broker.Buy(h.data, p("1"))
	assert.NoError(t, err)
}

func TestBroker_NonPositiveLeverage(t *testing.T) {
	for _, leverage := range []string{"0", "-2"} {
		t.Run(leverage, func(t *testing.T) {
			scheme := commission.NewScheme(commission.WithLeverage(p(leverage)))
			h := newHarness(t, WithCommission("", scheme))
			h.flat("100")

			_, err := h.broker.Buy(h.data, p("1"))
			assert.ErrorIs(t, err, ErrInvalidLeverage)

			_, err = h.broker.Commission(h.data)
			assert.ErrorIs(t, err, ErrInvalidLeverage)
		})
	}
}

func TestBroker_NotificationsAreSnapshots(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	o := h.buy("1")
	h.flat("100")

	first, ok := h.broker.Notification()
	require.True(t, ok)
	assert.Equal(t, order.Submitted, first.Status())
	assert.Equal(t, order.Completed, o.Status())
	assert.NotSame(t, o, first)

	open := h.broker.OrdersOpen(true)
	assert.Empty(t, open)
	status, ok := h.broker.OrderStatus(o)
	assert.True(t, ok)
	assert.Equal(t, order.Completed, status)
	assert.Len(t, h.broker.Orders(), 1)
}

func TestBroker_ValueOf(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	h.buy("10")
	h.flat("100")
	h.flat("110")

	v, err := h.broker.ValueOf([]feed.Data{h.data}, false)
	require.NoError(t, err)
	assert.True(t, v.Eq(p("1100")))

	v, err = h.broker.ValueOf([]feed.Data{h.data, feed.NewSeries("BBB")}, false)
	require.NoError(t, err)
	assert.True(t, v.Eq(h.broker.Value()))
	assert.True(t, h.broker.MarketValue(false).Eq(p("1100")))
}

func TestBroker_AddCash(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	h.broker.AddCash(p("500"))
	assert.True(t, h.broker.Cash().Eq(p("10000")))

	h.flat("100")
	assert.True(t, h.broker.Cash().Eq(p("10500")))
	assert.True(t, h.broker.FundShares().Eq(p("105")))
	assert.True(t, h.broker.FundValue().Eq(p("100")))
}

func TestBroker_Init(t *testing.T) {
	h := newHarness(t)
	h.flat("100")
	h.buy("1")
	h.flat("100")

	h.broker.Init()
	assert.True(t, h.broker.Cash().Eq(p("10000")))
	assert.Empty(t, h.broker.Orders())
	_, ok := h.broker.Notification()
	assert.False(t, ok)
	assert.False(t, h.broker.Position(h.data).IsOpen())
}
