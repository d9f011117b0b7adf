package order

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// ExecutionBit is one fill.
type ExecutionBit struct {
	DateTime    time.Time
	Size        fixed.Point
	Price       fixed.Point
	Closed      fixed.Point
	ClosedValue fixed.Point
	ClosedComm  fixed.Point
	Opened      fixed.Point
	OpenedValue fixed.Point
	OpenedComm  fixed.Point
	PnL         fixed.Point
	PSize       fixed.Point
	PPrice      fixed.Point
}

func (b ExecutionBit) Value() fixed.Point { return b.ClosedValue.Add(b.OpenedValue) }
func (b ExecutionBit) Comm() fixed.Point  { return b.ClosedComm.Add(b.OpenedComm) }

// Data is the creation request or the accumulated execution of an order.
type Data struct {
	DateTime     time.Time
	Size         fixed.Point
	RemSize      fixed.Point
	Price        fixed.Point
	PriceLimit   fixed.Point
	PClose       fixed.Point
	TrailAmount  fixed.Point
	TrailPercent fixed.Point
	Value        fixed.Point
	Comm         fixed.Point
	PnL          fixed.Point
	Margin       fixed.Point
	PSize        fixed.Point
	PPrice       fixed.Point
	Bits         []ExecutionBit
}

func (d *Data) addBit(bit ExecutionBit) {
	d.RemSize = d.RemSize.Sub(bit.Size)
	d.Bits = append(d.Bits, bit)
	d.DateTime = bit.DateTime

	oldValue := d.Size.Mul(d.Price)
	d.Size = d.Size.Add(bit.Size)
	if !d.Size.IsZero() {
		d.Price = oldValue.Add(bit.Size.Mul(bit.Price)).Div(d.Size)
	}
	d.Value = d.Value.Add(bit.Value())
	d.Comm = d.Comm.Add(bit.Comm())
	d.PnL = d.PnL.Add(bit.PnL)
	d.PSize = bit.PSize
	d.PPrice = bit.PPrice
}

func (d Data) clone() Data {
	c := d
	c.Bits = append([]ExecutionBit(nil), d.Bits...)
	return c
}
