package broker

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// tryExec matches o against the current bar of its instrument.
func (b *Broker) tryExec(o *order.Order) error {
	bar := feed.BarPrices(o.Data)
	created := o.Created.Price
	limit := o.Created.PriceLimit

	switch o.ExecType {
	case order.Market:
		return b.tryExecMarket(o, bar)
	case order.Close:
		return b.tryExecClose(o, bar.Close)
	case order.Limit:
		return b.tryExecLimit(o, bar, created)
	case order.Stop, order.StopTrail:
		return b.tryExecStop(o, bar, created)
	case order.StopLimit, order.StopTrailLimit:
		if o.Triggered {
			return b.tryExecLimit(o, bar, limit)
		}
		return b.tryExecStopLimit(o, bar, created, limit)
	case order.Historical:
		return b.tryExecHistorical(o, created)
	default:
		return fmt.Errorf("order %d %v: %w", o.Ref, o.ExecType, ErrUnknownExecType)
	}
}

func (b *Broker) tryExecMarket(o *order.Order, bar feed.Prices) error {
	var (
		dtcoc time.Time
		ref   fixed.Point
	)
	if b.coc && o.InfoBool("coc", true) {
		dtcoc = o.Created.DateTime
		ref = o.Created.PClose
	} else {
		if !b.coo && !o.Data.DateTime(0).After(o.Created.DateTime) {
			return nil
		}
		ref = bar.Open
	}

	price, ok := b.slipMarket(o, bar, ref, b.slipOpen)
	if !ok {
		return nil
	}
	return b.execute(o, 0, price, dtcoc)
}

// tryExecClose fills on the session closing bar. When the session end is
// only recognised on the following bar, the annotated previous close is
// used.
func (b *Broker) tryExecClose(o *order.Order, pclose fixed.Point) error {
	dt0 := o.Data.DateTime(0)
	if dt0.After(o.Created.DateTime) && !dt0.Before(o.DTEOS) {
		if annotated, ok := o.Annotated(); ok && dt0.After(o.DTEOS) {
			return b.execute(o, -1, annotated, time.Time{})
		}
		return b.execute(o, 0, pclose, time.Time{})
	}
	o.Annotate(pclose)
	return nil
}

func (b *Broker) tryExecLimit(o *order.Order, bar feed.Prices, limit fixed.Point) error {
	if o.IsBuy() {
		switch {
		case limit.Gte(bar.Open):
			price, ok := b.slipUp(fixed.Min(bar.High, limit), bar.Open, b.slipOpen, true)
			if !ok {
				return nil
			}
			return b.execute(o, 0, price, time.Time{})
		case limit.Gte(bar.Low):
			return b.execute(o, 0, limit, time.Time{})
		}
		return nil
	}

	switch {
	case limit.Lte(bar.Open):
		price, ok := b.slipDown(fixed.Max(bar.Low, limit), bar.Open, b.slipOpen, true)
		if !ok {
			return nil
		}
		return b.execute(o, 0, price, time.Time{})
	case limit.Lte(bar.High):
		return b.execute(o, 0, limit, time.Time{})
	}
	return nil
}

// tryExecStop fills at the open when the bar gaps through the stop and at
// the stop itself when it is touched intrabar.
func (b *Broker) tryExecStop(o *order.Order, bar feed.Prices, stop fixed.Point) error {
	var err error
	if o.IsBuy() {
		switch {
		case bar.Open.Gte(stop):
			err = b.fillAt(o, bar, bar.Open, b.slipOpen)
		case bar.High.Gte(stop):
			err = b.execute(o, 0, stop, time.Time{})
		}
	} else {
		switch {
		case bar.Open.Lte(stop):
			err = b.fillAt(o, bar, bar.Open, b.slipOpen)
		case bar.Low.Lte(stop):
			err = b.execute(o, 0, stop, time.Time{})
		}
	}
	if err != nil {
		return err
	}

	if o.Alive() && o.ExecType == order.StopTrail {
		o.TrailAdjust(bar.Close)
	}
	return nil
}

// tryExecStopLimit arms the limit once the stop is touched. When the
// trigger happens intrabar only the fills the bar shape allows are taken.
func (b *Broker) tryExecStopLimit(o *order.Order, bar feed.Prices, stop, limit fixed.Point) error {
	var err error
	if o.IsBuy() {
		switch {
		case bar.Open.Gte(stop):
			o.Triggered = true
			err = b.tryExecLimit(o, bar, limit)
		case bar.High.Gte(stop):
			o.Triggered = true
			switch {
			case limit.Gte(stop):
				if price, ok := b.slipUp(bar.High, stop, true, true); ok {
					err = b.execute(o, 0, price, time.Time{})
				}
			case bar.Open.Gt(bar.Close) && limit.Gte(bar.Close):
				err = b.execute(o, 0, limit, time.Time{})
			}
		}
	} else {
		switch {
		case bar.Open.Lte(stop):
			o.Triggered = true
			err = b.tryExecLimit(o, bar, limit)
		case bar.Low.Lte(stop):
			o.Triggered = true
			switch {
			case limit.Lte(stop):
				if price, ok := b.slipDown(bar.Low, stop, true, true); ok {
					err = b.execute(o, 0, price, time.Time{})
				}
			case bar.Open.Lte(bar.Close) && limit.Lte(bar.Close):
				err = b.execute(o, 0, limit, time.Time{})
			}
		}
	}
	if err != nil {
		return err
	}

	if o.Alive() && o.ExecType == order.StopTrailLimit {
		o.TrailAdjust(bar.Close)
	}
	return nil
}

func (b *Broker) tryExecHistorical(o *order.Order, price fixed.Point) error {
	return b.execute(o, 0, price, time.Time{})
}

func (b *Broker) fillAt(o *order.Order, bar feed.Prices, price fixed.Point, doSlip bool) error {
	p, ok := b.slipMarket(o, bar, price, doSlip)
	if !ok {
		return nil
	}
	return b.execute(o, 0, p, time.Time{})
}

func (b *Broker) slipMarket(o *order.Order, bar feed.Prices, price fixed.Point, doSlip bool) (fixed.Point, bool) {
	if o.IsBuy() {
		return b.slipUp(bar.High, price, doSlip, false)
	}
	return b.slipDown(bar.Low, price, doSlip, false)
}
