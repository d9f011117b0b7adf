// Package order implements the order state machine driven by the broker.
package order

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

type validKind int

const (
	validNone validKind = iota
	validAt
	validFor
	validDay
)

type Order struct {
	Ref        uint64
	Side       Side
	Data       feed.Data
	Size       fixed.Point
	ExecType   ExecType
	Created    Data
	Executed   Data
	Valid      time.Time
	TradeID    int
	Parent     *Order
	OCO        *Order
	Transmit   bool
	Triggered  bool
	HistNotify bool
	Info       map[string]any
	CommInfo   commission.Info

	// DTEOS is the end of the session of the creation bar.
	DTEOS time.Time

	status      Status
	active      bool
	limitOffset fixed.Point
	validKind   validKind
	validFor    time.Duration

	pannotated    fixed.Point
	hasPannotated bool
}

// New creates an order for size units of data. size is unsigned; sells are
// stored negative.
func New(ref uint64, side Side, data feed.Data, size fixed.Point, options ...Option) *Order {
	o := &Order{
		Ref:      ref,
		Side:     side,
		Data:     data,
		Transmit: true,
	}
	for _, option := range options {
		option(o)
	}

	o.active = o.Parent == nil
	o.Size = size.Abs()
	if side == Sell {
		o.Size = o.Size.Neg()
	}

	simulated := o.ExecType == Historical
	if simulated {
		o.Created.PClose = o.Created.Price
	} else {
		o.Created.PClose = data.Close(0)
		o.Created.DateTime = data.DateTime(0)
		o.DTEOS = data.SessionEnd(o.Created.DateTime)
		if o.DTEOS.Before(o.Created.DateTime) {
			o.DTEOS = o.DTEOS.Add(24 * time.Hour)
		}
	}
	if o.Created.Price.IsZero() && o.Created.PriceLimit.IsZero() {
		o.Created.Price = o.Created.PClose
	}
	o.Created.Size = o.Size
	o.Executed.RemSize = o.Size

	if o.ExecType == StopTrail || o.ExecType == StopTrailLimit {
		o.limitOffset = o.Created.Price.Sub(o.Created.PriceLimit)
		o.Created.Price = o.Created.Price.Add(o.trailDistance(o.Created.Price).Mul(o.sideSign()))
		if o.ExecType == StopTrailLimit {
			o.Created.PriceLimit = o.Created.Price.Sub(o.limitOffset)
		}
	}

	switch o.validKind {
	case validFor:
		o.Valid = o.Created.DateTime.Add(o.validFor)
	case validDay:
		o.Valid = o.DTEOS
	}

	return o
}

func (o *Order) IsBuy() bool { return o.Side == Buy }

func (o *Order) Status() Status { return o.status }

func (o *Order) Submit() { o.status = Submitted }
func (o *Order) Accept() { o.status = Accepted }

func (o *Order) Reject() {
	o.status = Rejected
	o.Executed.DateTime = o.Data.DateTime(0)
}

func (o *Order) Cancel() {
	o.status = Canceled
	o.Executed.DateTime = o.Data.DateTime(0)
}

func (o *Order) Margin() {
	o.status = Margin
	o.Executed.DateTime = o.Data.DateTime(0)
}

func (o *Order) Partial()   { o.status = Partial }
func (o *Order) Completed() { o.status = Completed }

// Expire moves the order to Expired once the current bar is past its
// validity. Market orders never expire.
func (o *Order) Expire() bool {
	if o.ExecType == Market || o.Valid.IsZero() {
		return false
	}
	now := o.Data.DateTime(0)
	if !now.After(o.Valid) {
		return false
	}
	o.status = Expired
	o.Executed.DateTime = now
	return true
}

// Active reports whether the order may be matched. Bracket children stay
// inactive until their parent has executed.
func (o *Order) Active() bool { return o.active }
func (o *Order) Activate()    { o.active = true }

func (o *Order) Alive() bool {
	switch o.status {
	case Created, Submitted, Accepted, Partial:
		return true
	default:
		return false
	}
}

// Execute records a fill and moves the order to Partial or Completed.
func (o *Order) Execute(bit ExecutionBit, margin fixed.Point) {
	if bit.Size.IsZero() {
		return
	}
	o.Executed.addBit(bit)
	o.Executed.Margin = margin
	if o.Executed.RemSize.IsZero() {
		o.Completed()
	} else {
		o.Partial()
	}
}

func (o *Order) AddCommInfo(info commission.Info) { o.CommInfo = info }

func (o *Order) AddInfo(key string, value any) {
	if o.Info == nil {
		o.Info = make(map[string]any)
	}
	o.Info[key] = value
}

// InfoBool reads a boolean info entry, returning def when absent.
func (o *Order) InfoBool(key string, def bool) bool {
	if v, ok := o.Info[key].(bool); ok {
		return v
	}
	return def
}

// Annotate caches the close of a bar a Close order did not execute on.
func (o *Order) Annotate(price fixed.Point) {
	o.pannotated = price
	o.hasPannotated = true
}

func (o *Order) Annotated() (fixed.Point, bool) {
	return o.pannotated, o.hasPannotated
}

func (o *Order) ClearAnnotation() {
	o.pannotated = fixed.Zero
	o.hasPannotated = false
}

// TrailAdjust moves a trailing stop towards price, never away from it.
func (o *Order) TrailAdjust(price fixed.Point) {
	stop := price.Add(o.trailDistance(price).Mul(o.sideSign()))
	if o.IsBuy() && !stop.Lt(o.Created.Price) {
		return
	}
	if !o.IsBuy() && !stop.Gt(o.Created.Price) {
		return
	}
	o.Created.Price = stop
	if o.ExecType == StopTrailLimit {
		o.Created.PriceLimit = stop.Sub(o.limitOffset)
	}
}

func (o *Order) trailDistance(price fixed.Point) fixed.Point {
	switch {
	case !o.Created.TrailAmount.IsZero():
		return o.Created.TrailAmount
	case !o.Created.TrailPercent.IsZero():
		return price.Mul(o.Created.TrailPercent)
	default:
		return fixed.Zero
	}
}

func (o *Order) sideSign() fixed.Point {
	if o.IsBuy() {
		return fixed.One
	}
	return fixed.NegOne
}

// Clone returns a snapshot that shares no mutable state with o.
func (o *Order) Clone() *Order {
	c := *o
	c.Created = o.Created.clone()
	c.Executed = o.Executed.clone()
	if o.Info != nil {
		c.Info = make(map[string]any, len(o.Info))
		for k, v := range o.Info {
			c.Info[k] = v
		}
	}
	return &c
}
