package broker

import (
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Next runs one bar: activation of bracket children, admission, interest,
// history injection, one matching sweep over pending orders, mark to market
// and valuation.
func (b *Broker) Next() error {
	for _, o := range b.toActivate {
		o.Activate()
	}
	b.toActivate = nil

	if b.checkSubmit {
		if err := b.checkSubmitted(); err != nil {
			return err
		}
	}

	if err := b.accrueCredit(); err != nil {
		return err
	}

	if err := b.processOrderHistory(); err != nil {
		return err
	}

	if err := b.sweep(); err != nil {
		return err
	}

	if err := b.markToMarket(); err != nil {
		return err
	}

	return b.updateValue()
}

func (b *Broker) accrueCredit() error {
	var err error
	total := fixed.Zero
	b.positions.Each(func(d feed.Data, pos *position.Position) bool {
		if !pos.IsOpen() {
			return true
		}
		info, e := b.Commission(d)
		if e != nil {
			err = e
			return false
		}
		dt := d.DateTime(0)
		credit := info.CreditInterest(pos, dt)
		b.credit[d] = b.credit[d].Add(credit)
		total = total.Add(credit)
		pos.DateTime = dt
		return true
	})
	if err != nil {
		return err
	}
	b.cash = b.cash.Sub(total)
	return nil
}

// sweep visits every pending order once. Orders requeued during the sweep
// land behind the end marker and wait for the next bar.
func (b *Broker) sweep() error {
	b.pending.push(nil)
	for {
		o, _ := b.pending.pop()
		if o == nil {
			return nil
		}

		switch {
		case o.Expire():
			b.notify(o)
			b.ococheck(o)
			b.bracketize(o, true)
		case !o.Active():
			b.pending.push(o)
		default:
			if err := b.tryExec(o); err != nil {
				b.pending.push(o)
				b.pending.compact()
				return err
			}
			if o.Alive() {
				b.pending.push(o)
			} else if o.Status() == order.Completed {
				b.bracketize(o, false)
			}
		}
	}
}

func (b *Broker) markToMarket() error {
	var err error
	b.positions.Each(func(d feed.Data, pos *position.Position) bool {
		if !pos.IsOpen() {
			return true
		}
		info, e := b.Commission(d)
		if e != nil {
			err = e
			return false
		}
		closePrice := d.Close(0)
		if base, ok := pos.AdjBase(); ok {
			b.cash = b.cash.Add(info.CashAdjust(pos.Size, base, closePrice))
		}
		pos.SetAdjBase(closePrice)
		return true
	})
	return err
}
