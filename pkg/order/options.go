package order

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

type Option func(*Order)

// WithPrice sets the limit or stop price, or the execution price of a
// historical order.
func WithPrice(price fixed.Point) Option {
	return func(o *Order) { o.Created.Price = price }
}

// WithPriceLimit sets the limit of a StopLimit order.
func WithPriceLimit(price fixed.Point) Option {
	return func(o *Order) { o.Created.PriceLimit = price }
}

func WithExecType(e ExecType) Option {
	return func(o *Order) { o.ExecType = e }
}

// WithValid expires the order after t. A zero t is good till canceled.
func WithValid(t time.Time) Option {
	return func(o *Order) {
		o.validKind = validAt
		o.Valid = t
	}
}

// WithValidFor expires the order d after its creation bar. Zero means the
// end of the creation session.
func WithValidFor(d time.Duration) Option {
	return func(o *Order) {
		if d == 0 {
			o.validKind = validDay
			return
		}
		o.validKind = validFor
		o.validFor = d
	}
}

// WithValidDay expires the order at the end of its creation session.
func WithValidDay() Option {
	return func(o *Order) { o.validKind = validDay }
}

func WithTradeID(id int) Option {
	return func(o *Order) { o.TradeID = id }
}

func WithTrailAmount(amount fixed.Point) Option {
	return func(o *Order) { o.Created.TrailAmount = amount }
}

// WithTrailPercent sets the trailing distance as a fraction of the price.
func WithTrailPercent(perc fixed.Point) Option {
	return func(o *Order) { o.Created.TrailPercent = perc }
}

// WithParent makes the order a bracket child of parent.
func WithParent(parent *Order) Option {
	return func(o *Order) { o.Parent = parent }
}

// WithTransmit controls whether the order and its queued bracket siblings are
// sent immediately.
func WithTransmit(transmit bool) Option {
	return func(o *Order) { o.Transmit = transmit }
}

func WithHistNotify(notify bool) Option {
	return func(o *Order) { o.HistNotify = notify }
}

// WithOCO joins the one-cancels-other group of other.
func WithOCO(other *Order) Option {
	return func(o *Order) { o.OCO = other }
}

func WithInfo(key string, value any) Option {
	return func(o *Order) { o.AddInfo(key, value) }
}
