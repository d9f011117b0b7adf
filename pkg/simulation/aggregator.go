package simulation

import (
	"errors"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
)

const (
	aggregatorComponentName = "simulation.aggregator"
)

// Aggregator compresses the bars of a source into bars of a longer interval.
// A bar is emitted once the source moves past its interval or runs out.
type Aggregator struct {
	interval   time.Duration
	source     feed.BarSource
	currentBar *common.Bar
	done       bool
}

func NewAggregator(interval time.Duration, source feed.BarSource) *Aggregator {
	return &Aggregator{
		interval: interval,
		source:   source,
	}
}

func (a *Aggregator) GetNext() (common.Bar, error) {
	for {
		if a.done {
			return a.flush()
		}

		bar, err := a.source.GetNext()
		if errors.Is(err, feed.ErrEof) {
			a.done = true
			continue
		}
		if err != nil {
			return common.Bar{}, err
		}

		barTS := bar.TimeStamp.Truncate(a.interval)

		if a.currentBar != nil && !barTS.Equal(a.currentBar.TimeStamp) {
			out := *a.currentBar
			a.start(bar, barTS)
			return out, nil
		}

		if a.currentBar == nil {
			a.start(bar, barTS)
			continue
		}

		if bar.High.Gt(a.currentBar.High) {
			a.currentBar.High = bar.High
		}
		if bar.Low.Lt(a.currentBar.Low) {
			a.currentBar.Low = bar.Low
		}
		a.currentBar.Close = bar.Close
		a.currentBar.Volume = a.currentBar.Volume.Add(bar.Volume)
	}
}

func (a *Aggregator) start(bar common.Bar, ts time.Time) {
	bar.TimeStamp = ts
	bar.Period = a.interval
	bar.Source = aggregatorComponentName
	a.currentBar = &bar
}

func (a *Aggregator) flush() (common.Bar, error) {
	if a.currentBar == nil {
		return common.Bar{}, feed.ErrEof
	}
	out := *a.currentBar
	a.currentBar = nil
	return out, nil
}
