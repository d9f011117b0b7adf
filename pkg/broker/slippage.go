package broker

import "github.com/peter-kozarec/barbroker/pkg/utility/fixed"

// slipUp moves a buy price up by the configured slippage, bounded by high.
// ok is false when the slipped price leaves the bar and may not be clamped.
func (b *Broker) slipUp(high, price fixed.Point, doSlip, limit bool) (fixed.Point, bool) {
	if !doSlip {
		return price, true
	}

	var slipped fixed.Point
	switch {
	case !b.slipPerc.IsZero():
		slipped = price.Mul(fixed.One.Add(b.slipPerc))
	case !b.slipFixed.IsZero():
		slipped = price.Add(b.slipFixed)
	default:
		return price, true
	}

	if slipped.Lte(high) {
		return slipped, true
	}
	return b.outOfRange(high, slipped, limit)
}

// slipDown is the sell side mirror of slipUp, bounded by low.
func (b *Broker) slipDown(low, price fixed.Point, doSlip, limit bool) (fixed.Point, bool) {
	if !doSlip {
		return price, true
	}

	var slipped fixed.Point
	switch {
	case !b.slipPerc.IsZero():
		slipped = price.Mul(fixed.One.Sub(b.slipPerc))
	case !b.slipFixed.IsZero():
		slipped = price.Sub(b.slipFixed)
	default:
		return price, true
	}

	if slipped.Gte(low) {
		return slipped, true
	}
	return b.outOfRange(low, slipped, limit)
}

func (b *Broker) outOfRange(bound, slipped fixed.Point, limit bool) (fixed.Point, bool) {
	if !b.slipMatch && !(limit && b.slipLimit) {
		return fixed.Zero, false
	}
	if b.slipOut {
		return slipped, true
	}
	return bound, true
}
