// Package position holds the signed size and average price ledger of one
// instrument.
package position

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

type Position struct {
	Size      fixed.Point
	Price     fixed.Point
	PriceOrig fixed.Point
	UpOpened  fixed.Point
	UpClosed  fixed.Point
	DateTime  time.Time

	adjBase    fixed.Point
	hasAdjBase bool
}

func New(size, price fixed.Point) *Position {
	p := &Position{Size: size, Price: price}
	if size.IsZero() {
		p.Price = fixed.Zero
	}
	return p
}

// AdjBase is the last price the position was marked to market at.
func (p *Position) AdjBase() (fixed.Point, bool) {
	return p.adjBase, p.hasAdjBase
}

func (p *Position) SetAdjBase(price fixed.Point) {
	p.adjBase = price
	p.hasAdjBase = true
}

func (p *Position) IsOpen() bool {
	return !p.Size.IsZero()
}

func (p *Position) Len() fixed.Point {
	return p.Size.Abs()
}

// Clone copies size and price only.
func (p *Position) Clone() *Position {
	return New(p.Size, p.Price)
}

// Fix overwrites size and price and reports whether the size was unchanged.
func (p *Position) Fix(size, price fixed.Point) bool {
	old := p.Size
	p.Size = size
	p.Price = price
	return size.Eq(old)
}

// Set moves the position to size at price, recording the implied opened and
// closed amounts.
func (p *Position) Set(size, price fixed.Point) (fixed.Point, fixed.Point, fixed.Point, fixed.Point) {
	switch {
	case p.Size.IsPos():
		if size.Gt(p.Size) {
			p.UpOpened = size.Sub(p.Size)
			p.UpClosed = fixed.Zero
		} else {
			p.UpOpened = fixed.Min(fixed.Zero, size)
			p.UpClosed = fixed.Min(p.Size, p.Size.Sub(size))
		}
	case p.Size.IsNeg():
		if size.Lt(p.Size) {
			p.UpOpened = size.Sub(p.Size)
			p.UpClosed = fixed.Zero
		} else {
			p.UpOpened = fixed.Max(fixed.Zero, size)
			p.UpClosed = fixed.Max(p.Size, p.Size.Sub(size))
		}
	default:
		p.UpOpened = size
		p.UpClosed = fixed.Zero
	}

	p.Size = size
	p.PriceOrig = p.Price
	if size.IsZero() {
		p.Price = fixed.Zero
	} else {
		p.Price = price
	}
	return p.Size, p.Price, p.UpOpened, p.UpClosed
}

// Update applies a trade of delta at price and returns the resulting size,
// average price and the opened/closed split of delta.
func (p *Position) Update(delta, price fixed.Point, dt time.Time) (size, avg, opened, closed fixed.Point) {
	p.DateTime = dt
	p.PriceOrig = p.Price

	old := p.Size
	p.Size = p.Size.Add(delta)

	switch {
	case p.Size.IsZero():
		opened, closed = fixed.Zero, delta
		p.Price = fixed.Zero
	case old.IsZero():
		opened, closed = delta, fixed.Zero
		p.Price = price
	case old.Sign() == delta.Sign():
		opened, closed = delta, fixed.Zero
		p.Price = p.Price.Mul(old).Add(delta.Mul(price)).Div(p.Size)
	case p.Size.Sign() == old.Sign():
		opened, closed = fixed.Zero, delta
	default:
		opened, closed = p.Size, old.Neg()
		p.Price = price
	}

	p.UpOpened = opened
	p.UpClosed = closed
	return p.Size, p.Price, opened, closed
}

// PseudoUpdate computes Update on a copy and leaves p untouched.
func (p *Position) PseudoUpdate(delta, price fixed.Point) (size, avg, opened, closed fixed.Point) {
	return p.Clone().Update(delta, price, time.Time{})
}
