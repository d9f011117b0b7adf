// Package commission prices trades: margin, valuation, fees, profit and loss,
// futures cash settlement and credit interest.
package commission

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Info is what the broker needs from a commission scheme.
type Info interface {
	Value(pos *position.Position, price fixed.Point) fixed.Point
	ValueSize(size, price fixed.Point) fixed.Point
	OperationCost(size, price fixed.Point) fixed.Point
	ProfitAndLoss(size, entry, price fixed.Point) fixed.Point
	Commission(size, price fixed.Point) fixed.Point
	CashAdjust(size, base, price fixed.Point) fixed.Point
	CreditInterest(pos *position.Position, dt time.Time) fixed.Point
	ConfirmExec(size, price fixed.Point)
	Margin(price fixed.Point) fixed.Point
	Leverage() fixed.Point
	StockLike() bool
	Size(price, cash fixed.Point) fixed.Point
}

type Type int

const (
	Default Type = iota
	Percentage
	Fixed
)

func (t Type) String() string {
	switch t {
	case Percentage:
		return "percentage"
	case Fixed:
		return "fixed"
	default:
		return "default"
	}
}
