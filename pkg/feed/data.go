// Package feed defines the instrument handle the broker reads prices from and
// an in-memory bar series implementing it.
package feed

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Data is a bar-by-bar view of one instrument. ago follows the replay
// convention: 0 is the current bar, -1 the previous one.
type Data interface {
	Name() string
	Len() int

	Open(ago int) fixed.Point
	High(ago int) fixed.Point
	Low(ago int) fixed.Point
	Close(ago int) fixed.Point
	Volume(ago int) fixed.Point
	DateTime(ago int) time.Time

	// SessionEnd returns the end of the trading session containing t.
	SessionEnd(t time.Time) time.Time
}

// Prices are intrabar overrides used instead of the bar OHLC when present.
// A zero field keeps the bar value.
type Prices struct {
	Open  fixed.Point
	High  fixed.Point
	Low   fixed.Point
	Close fixed.Point
}

// TickSource is implemented by feeds that can expose intrabar prices.
type TickSource interface {
	TickPrices() (Prices, bool)
}

// Compensator is implemented by feeds settled through another instrument.
type Compensator interface {
	Compensate() Data
}

// BarPrices returns the open, high, low and close the broker must match
// against, preferring tick overrides field by field.
func BarPrices(d Data) Prices {
	p := Prices{Open: d.Open(0), High: d.High(0), Low: d.Low(0), Close: d.Close(0)}
	ts, ok := d.(TickSource)
	if !ok {
		return p
	}
	tp, ok := ts.TickPrices()
	if !ok {
		return p
	}
	for _, f := range []struct{ dst, src *fixed.Point }{
		{&p.Open, &tp.Open}, {&p.High, &tp.High}, {&p.Low, &tp.Low}, {&p.Close, &tp.Close},
	} {
		if !f.src.IsZero() {
			*f.dst = *f.src
		}
	}
	return p
}

// CompensationOf returns the compensation instrument of d or nil.
func CompensationOf(d Data) Data {
	if c, ok := d.(Compensator); ok {
		return c.Compensate()
	}
	return nil
}
