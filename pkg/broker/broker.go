// Package broker simulates an account that fills orders against replayed
// bars and keeps cash, positions and valuation up to date.
package broker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

const brokerComponentName = "broker.back"

var defaultCash = fixed.FromInt(10000, 0)

type Broker struct {
	logger *zap.Logger

	startCash    fixed.Point
	checkSubmit  bool
	filler       Filler
	slipPerc     fixed.Point
	slipFixed    fixed.Point
	slipOpen     bool
	slipMatch    bool
	slipLimit    bool
	slipOut      bool
	coc          bool
	coo          bool
	int2pnl      bool
	shortCash    bool
	fundStartVal fixed.Point
	fundMode     bool

	commInfo map[string]commission.Info
	datas    []feed.Data

	cash          fixed.Point
	startingCash  fixed.Point
	value         fixed.Point
	valueLever    fixed.Point
	valueMkt      fixed.Point
	valueMktLever fixed.Point
	leverage      fixed.Point
	unrealized    fixed.Point

	positions  *position.Book
	orders     []*order.Order
	pending    orderQueue
	submitted  []*order.Order
	notifs     []*order.Order
	toActivate []*order.Order
	credit     map[feed.Data]fixed.Point

	children  map[uint64][]*order.Order
	ocoLeader map[uint64]uint64
	ocoGroup  map[uint64][]uint64

	fundShares    fixed.Point
	fundValue     fixed.Point
	cashAdditions []fixed.Point

	history     []historyStream
	fundHistory []FundRow

	lastRef uint64
}

func New(options ...Option) *Broker {
	b := &Broker{
		logger:       zap.NewNop(),
		startCash:    defaultCash,
		checkSubmit:  true,
		slipMatch:    true,
		slipLimit:    true,
		int2pnl:      true,
		shortCash:    true,
		fundStartVal: fixed.Hundred,
		commInfo: map[string]commission.Info{
			"": commission.NewScheme(),
		},
	}
	for _, option := range options {
		option(b)
	}
	b.Init()
	return b
}

// Init resets the session to the configured starting cash.
func (b *Broker) Init() {
	b.cash = b.startCash
	b.startingCash = b.startCash
	b.value = b.startCash
	b.valueMkt = fixed.Zero
	b.valueLever = fixed.Zero
	b.valueMktLever = fixed.Zero
	b.leverage = fixed.One
	b.unrealized = fixed.Zero

	b.positions = position.NewBook()
	b.orders = nil
	b.pending.reset()
	b.submitted = nil
	b.notifs = nil
	b.toActivate = nil
	b.credit = make(map[feed.Data]fixed.Point)

	b.children = make(map[uint64][]*order.Order)
	b.ocoLeader = make(map[uint64]uint64)
	b.ocoGroup = make(map[uint64][]uint64)

	b.fundValue = b.fundStartVal
	b.fundShares = fixed.Zero
	if !b.fundValue.IsZero() {
		b.fundShares = b.cash.Div(b.fundValue)
	}
	b.cashAdditions = nil
	b.history = nil
	b.fundHistory = nil
}

// AddData registers instruments so history rows can refer to them by name
// or index. The first registered instrument provides the session clock.
func (b *Broker) AddData(datas ...feed.Data) {
	for _, d := range datas {
		b.register(d)
	}
}

func (b *Broker) register(d feed.Data) {
	for _, known := range b.datas {
		if known == d {
			return
		}
	}
	b.datas = append(b.datas, d)
}

func (b *Broker) SetCommission(name string, info commission.Info) {
	b.commInfo[name] = info
}

func (b *Broker) RemoveCommission(name string) {
	delete(b.commInfo, name)
}

// Commission returns the commission info of d, falling back to the default.
// Infos with a non positive leverage are rejected.
func (b *Broker) Commission(d feed.Data) (commission.Info, error) {
	info, ok := b.commInfo[d.Name()]
	if !ok {
		if info, ok = b.commInfo[""]; !ok {
			return nil, fmt.Errorf("%s: %w", d.Name(), ErrNoCommissionInfo)
		}
	}
	if !info.Leverage().IsPos() {
		return nil, fmt.Errorf("%s leverage %s: %w", d.Name(), info.Leverage(), ErrInvalidLeverage)
	}
	return info, nil
}

// SetCash resets both the starting and the live cash.
func (b *Broker) SetCash(cash fixed.Point) {
	b.startCash = cash
	b.startingCash = cash
	b.cash = cash
	b.value = cash
}

func (b *Broker) Cash() fixed.Point         { return b.cash }
func (b *Broker) StartingCash() fixed.Point { return b.startingCash }

// AddCash queues a deposit, or a withdrawal when negative, applied at the
// next valuation.
func (b *Broker) AddCash(cash fixed.Point) {
	b.cashAdditions = append(b.cashAdditions, cash)
}

func (b *Broker) FundMode() bool          { return b.fundMode }
func (b *Broker) FundShares() fixed.Point { return b.fundShares }
func (b *Broker) FundValue() fixed.Point  { return b.fundValue }
func (b *Broker) Leverage() fixed.Point   { return b.leverage }
func (b *Broker) Unrealized() fixed.Point { return b.unrealized }

// Position returns the live position of d, creating a flat one if needed.
func (b *Broker) Position(d feed.Data) *position.Position {
	return b.positions.GetOrCreate(d)
}

// EachPosition visits positions in the order instruments were first traded.
func (b *Broker) EachPosition(fn func(feed.Data, *position.Position) bool) {
	b.positions.Each(fn)
}

func (b *Broker) Buy(data feed.Data, size fixed.Point, options ...order.Option) (*order.Order, error) {
	return b.place(order.Buy, data, size, true, options...)
}

func (b *Broker) Sell(data feed.Data, size fixed.Point, options ...order.Option) (*order.Order, error) {
	return b.place(order.Sell, data, size, true, options...)
}

func (b *Broker) place(side order.Side, data feed.Data, size fixed.Point, check bool, options ...order.Option) (*order.Order, error) {
	if _, err := b.Commission(data); err != nil {
		return nil, err
	}
	b.register(data)

	b.lastRef++
	o := order.New(b.lastRef, side, data, size, options...)
	b.logger.Debug("order created",
		zap.String("source", brokerComponentName),
		zap.Uint64("ref", o.Ref),
		zap.Stringer("side", o.Side),
		zap.Stringer("exec_type", o.ExecType),
		zap.String("size", o.Size.String()),
		zap.String("price", o.Created.Price.String()))

	b.ocoize(o)
	return b.submit(o, check), nil
}

// Notification pops the oldest order snapshot.
func (b *Broker) Notification() (*order.Order, bool) {
	if len(b.notifs) == 0 {
		return nil, false
	}
	o := b.notifs[0]
	b.notifs[0] = nil
	b.notifs = b.notifs[1:]
	return o, true
}

// OrdersOpen lists pending orders. safe returns clones.
func (b *Broker) OrdersOpen(safe bool) []*order.Order {
	open := b.pending.orders()
	if !safe {
		return open
	}
	for i, o := range open {
		open[i] = o.Clone()
	}
	return open
}

// Orders lists every order transmitted during the session.
func (b *Broker) Orders() []*order.Order {
	return b.orders
}

func (b *Broker) OrderStatus(o *order.Order) (order.Status, bool) {
	for _, known := range b.orders {
		if known.Ref == o.Ref {
			return known.Status(), true
		}
	}
	return order.Created, false
}

func (b *Broker) notify(o *order.Order) {
	if o.ExecType == order.Historical && !o.HistNotify {
		return
	}
	fields := []zap.Field{
		zap.String("source", brokerComponentName),
		zap.Uint64("ref", o.Ref),
		zap.Stringer("status", o.Status()),
	}
	switch o.Status() {
	case order.Margin, order.Rejected:
		b.logger.Warn("order notification", fields...)
	default:
		b.logger.Debug("order notification", fields...)
	}
	b.notifs = append(b.notifs, o.Clone())
}

// clock returns the first registered instrument, whose bars set the session time.
func (b *Broker) clock() (feed.Data, error) {
	if len(b.datas) == 0 {
		return nil, ErrNoData
	}
	return b.datas[0], nil
}
