package commission

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

type Option func(*Scheme)

// WithCommission sets the fee per unit (Fixed) or percent of notional
// (Percentage).
func WithCommission(c fixed.Point) Option {
	return func(s *Scheme) { s.commission = c }
}

func WithType(t Type) Option {
	return func(s *Scheme) { s.commType = t }
}

// WithMargin makes the scheme futures-like unless the type is set explicitly.
func WithMargin(m fixed.Point) Option {
	return func(s *Scheme) {
		s.margin = m
		s.hasMargin = true
	}
}

// WithAutoMargin computes margin as price*factor, or price*mult for negative
// factors.
func WithAutoMargin(factor fixed.Point) Option {
	return func(s *Scheme) { s.autoMargin = factor }
}

func WithMult(m fixed.Point) Option {
	return func(s *Scheme) { s.mult = m }
}

func WithStockLike(stock bool) Option {
	return func(s *Scheme) { s.stockLike = stock }
}

// WithPercAbs keeps a Percentage commission as an absolute fraction.
func WithPercAbs(abs bool) Option {
	return func(s *Scheme) { s.percAbs = abs }
}

// WithInterest sets the yearly credit interest rate as a fraction.
func WithInterest(rate fixed.Point) Option {
	return func(s *Scheme) { s.interest = rate }
}

func WithInterestLong(on bool) Option {
	return func(s *Scheme) { s.interestLong = on }
}

func WithLeverage(l fixed.Point) Option {
	return func(s *Scheme) { s.leverage = l }
}

type Scheme struct {
	commission   fixed.Point
	commType     Type
	margin       fixed.Point
	hasMargin    bool
	autoMargin   fixed.Point
	mult         fixed.Point
	stockLike    bool
	percAbs      bool
	interest     fixed.Point
	interestLong bool
	leverage     fixed.Point

	creditRate fixed.Point
}

func NewScheme(options ...Option) *Scheme {
	s := &Scheme{
		mult:     fixed.One,
		leverage: fixed.One,
	}
	for _, option := range options {
		option(s)
	}

	if s.commType == Default {
		if s.hasMargin {
			s.stockLike = false
			s.commType = Fixed
		} else {
			s.stockLike = true
			s.commType = Percentage
		}
	}

	if !s.stockLike && !s.hasMargin {
		s.margin = fixed.One
	}

	if s.commType == Percentage && !s.percAbs {
		s.commission = s.commission.Div(fixed.Hundred)
	}

	s.creditRate = s.interest.Div(fixed.Year)
	return s
}

func (s *Scheme) StockLike() bool              { return s.stockLike }
func (s *Scheme) Leverage() fixed.Point        { return s.leverage }
func (s *Scheme) Type() Type                   { return s.commType }
func (s *Scheme) Mult() fixed.Point            { return s.mult }
func (s *Scheme) ConfirmExec(_, _ fixed.Point) {}

func (s *Scheme) Margin(price fixed.Point) fixed.Point {
	switch {
	case s.autoMargin.IsZero():
		return s.margin
	case s.autoMargin.IsNeg():
		return price.Mul(s.mult)
	default:
		return price.Mul(s.autoMargin)
	}
}

// Size returns how many units cash can buy at price.
func (s *Scheme) Size(price, cash fixed.Point) fixed.Point {
	unit := price
	if !s.stockLike {
		unit = s.Margin(price)
	}
	if unit.IsZero() {
		return fixed.Zero
	}
	return s.leverage.Mul(cash.FloorDiv(unit)).Floor()
}

func (s *Scheme) OperationCost(size, price fixed.Point) fixed.Point {
	if !s.stockLike {
		return size.Abs().Mul(s.Margin(price))
	}
	return size.Abs().Mul(price)
}

func (s *Scheme) ValueSize(size, price fixed.Point) fixed.Point {
	if !s.stockLike {
		return size.Abs().Mul(s.Margin(price))
	}
	return size.Mul(price)
}

func (s *Scheme) Value(pos *position.Position, price fixed.Point) fixed.Point {
	if !s.stockLike {
		return pos.Size.Abs().Mul(s.Margin(price))
	}
	if !pos.Size.IsNeg() {
		return pos.Size.Mul(price)
	}
	value := pos.Price.Mul(pos.Size)
	return value.Add(pos.Price.Sub(price).Mul(pos.Size))
}

func (s *Scheme) Commission(size, price fixed.Point) fixed.Point {
	if s.commType == Percentage {
		return size.Abs().Mul(s.commission).Mul(price)
	}
	return size.Abs().Mul(s.commission)
}

func (s *Scheme) ProfitAndLoss(size, entry, price fixed.Point) fixed.Point {
	return size.Mul(price.Sub(entry)).Mul(s.mult)
}

// CashAdjust is the settlement flow of futures-like instruments moving from
// base to price. Stock-like schemes never settle.
func (s *Scheme) CashAdjust(size, base, price fixed.Point) fixed.Point {
	if s.stockLike {
		return fixed.Zero
	}
	return size.Mul(price.Sub(base)).Mul(s.mult)
}

// CreditInterest charges the days elapsed between the last charge recorded on
// pos and dt. Long positions are charged only when enabled.
func (s *Scheme) CreditInterest(pos *position.Position, dt time.Time) fixed.Point {
	if pos.Size.IsPos() && !s.interestLong {
		return fixed.Zero
	}
	days := daysBetween(pos.DateTime, dt)
	if days <= 0 {
		return fixed.Zero
	}
	return fixed.FromInt(days, 0).Mul(s.creditRate).Mul(pos.Size.Abs()).Mul(pos.Price)
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	y0, m0, d0 := from.Date()
	y1, m1, d1 := to.Date()
	a := time.Date(y0, m0, d0, 0, 0, 0, 0, time.UTC)
	b := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
