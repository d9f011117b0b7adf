package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility/circular"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

const defaultLookback = 16

var ErrOutOfOrder = errors.New("bar is not newer than the previous bar")

type SeriesOption func(*Series)

// WithLookback sets how many bars are kept for ago lookups.
func WithLookback(n uint) SeriesOption {
	return func(s *Series) {
		s.lookback = n
	}
}

// WithSessionEnd sets the time of day at which the trading session closes.
func WithSessionEnd(hour, min, sec int) SeriesOption {
	return func(s *Series) {
		s.sessionEnd = time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second
	}
}

// WithCompensation books fees of this series through other.
func WithCompensation(other Data) SeriesOption {
	return func(s *Series) {
		s.compensate = other
	}
}

// Series is an in-memory Data fed one bar at a time.
type Series struct {
	name       string
	lookback   uint
	sessionEnd time.Duration
	compensate Data

	bars   *circular.Buffer[common.Bar]
	count  int
	tick   Prices
	isTick bool
}

func NewSeries(name string, options ...SeriesOption) *Series {
	s := &Series{
		name:       name,
		lookback:   defaultLookback,
		sessionEnd: 24*time.Hour - time.Nanosecond,
	}
	for _, option := range options {
		option(s)
	}
	if s.lookback < 2 {
		s.lookback = 2
	}
	s.bars = circular.NewBuffer[common.Bar](s.lookback)
	return s
}

// Push appends the next bar and clears any tick override.
func (s *Series) Push(bar common.Bar) error {
	if last, ok := s.bars.Get(0); ok && !bar.TimeStamp.After(last.TimeStamp) {
		return fmt.Errorf("%s at %v: %w", s.name, bar.TimeStamp, ErrOutOfOrder)
	}
	s.bars.Push(bar)
	s.count++
	s.isTick = false
	return nil
}

// SetTick overrides the current bar prices for matching until the next Push.
func (s *Series) SetTick(p Prices) {
	s.tick = p
	s.isTick = true
}

func (s *Series) TickPrices() (Prices, bool) {
	return s.tick, s.isTick
}

func (s *Series) Compensate() Data {
	return s.compensate
}

func (s *Series) Name() string { return s.name }
func (s *Series) Len() int     { return s.count }

func (s *Series) Bar(ago int) (common.Bar, bool) {
	if ago > 0 {
		return common.Bar{}, false
	}
	return s.bars.Get(uint(-ago))
}

func (s *Series) Open(ago int) fixed.Point {
	b, _ := s.Bar(ago)
	return b.Open
}

func (s *Series) High(ago int) fixed.Point {
	b, _ := s.Bar(ago)
	return b.High
}

func (s *Series) Low(ago int) fixed.Point {
	b, _ := s.Bar(ago)
	return b.Low
}

func (s *Series) Close(ago int) fixed.Point {
	b, _ := s.Bar(ago)
	return b.Close
}

func (s *Series) Volume(ago int) fixed.Point {
	b, _ := s.Bar(ago)
	return b.Volume
}

func (s *Series) DateTime(ago int) time.Time {
	b, _ := s.Bar(ago)
	return b.TimeStamp
}

func (s *Series) SessionEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(s.sessionEnd)
}
