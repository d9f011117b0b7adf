package broker

import (
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Filler decides how much of an order can be filled at price on the bar ago
// bars back. The result is unsigned.
type Filler interface {
	Fill(o *order.Order, price fixed.Point, ago int) fixed.Point
}

type FillerFunc func(o *order.Order, price fixed.Point, ago int) fixed.Point

func (f FillerFunc) Fill(o *order.Order, price fixed.Point, ago int) fixed.Point {
	return f(o, price, ago)
}

// FixedSize fills at most Size units per bar, bounded by bar volume. A zero
// Size only applies the volume bound.
type FixedSize struct {
	Size fixed.Point
}

func (f FixedSize) Fill(o *order.Order, _ fixed.Point, ago int) fixed.Point {
	size := fixed.Min(o.Data.Volume(ago), o.Executed.RemSize.Abs())
	if !f.Size.IsZero() {
		size = fixed.Min(size, f.Size)
	}
	return size
}

// FixedBarPerc fills at most Perc percent of the bar volume.
type FixedBarPerc struct {
	Perc fixed.Point
}

func NewFixedBarPerc() FixedBarPerc {
	return FixedBarPerc{Perc: fixed.Hundred}
}

func (f FixedBarPerc) Fill(o *order.Order, _ fixed.Point, ago int) fixed.Point {
	maxSize := o.Data.Volume(ago).Mul(f.Perc).FloorDiv(fixed.Hundred)
	return fixed.Min(maxSize, o.Executed.RemSize.Abs())
}

// BarPointPerc spreads the bar volume evenly over the price points between
// low and high, MinMove apart, and fills at most Perc percent of one point.
// A zero MinMove treats the whole bar as one point.
type BarPointPerc struct {
	MinMove fixed.Point
	Perc    fixed.Point
}

func NewBarPointPerc() BarPointPerc {
	return BarPointPerc{MinMove: fixed.MustParse("0.01"), Perc: fixed.Hundred}
}

func (f BarPointPerc) Fill(o *order.Order, _ fixed.Point, ago int) fixed.Point {
	d := o.Data
	parts := fixed.One
	if !f.MinMove.IsZero() {
		parts = parts.Add(d.High(ago).Sub(d.Low(ago)).FloorDiv(f.MinMove))
	}
	alloc := d.Volume(ago).Div(parts).Mul(f.Perc).FloorDiv(fixed.Hundred)
	return fixed.Min(alloc, o.Executed.RemSize.Abs())
}
