package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/peter-kozarec/barbroker/internal/config"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/data/duckdb"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/feed/historical"
	"github.com/peter-kozarec/barbroker/pkg/feed/synthetic"
	"github.com/peter-kozarec/barbroker/pkg/simulation"
)

// openFeed builds the bar source of f. The returned closer releases files
// held by the source and is never nil.
func openFeed(ctx context.Context, f config.Feed) (feed.BarSource, func(), error) {
	var (
		source feed.BarSource
		closer = func() {}
	)

	switch f.Source {
	case config.SourceBinary:
		src := historical.NewSource[historical.BinaryBar](f.Path)
		if err := src.Open(); err != nil {
			return nil, closer, fmt.Errorf("feed %s: %w", f.Name, err)
		}
		closer = src.Close
		source = historical.NewBarReader(src, f.Name, f.Period, f.From, f.To)

	case config.SourceDuckDB:
		db := duckdb.NewReader(f.Path)
		if err := db.Connect(); err != nil {
			return nil, closer, fmt.Errorf("feed %s: %w", f.Name, err)
		}
		defer db.Close()

		var bars []common.Bar
		err := db.LoadBars(ctx, f.Table, f.Name, f.Period, f.From, f.To, func(bar common.Bar) error {
			bars = append(bars, bar)
			return nil
		})
		if err != nil {
			return nil, closer, fmt.Errorf("feed %s: %w", f.Name, err)
		}
		source = feed.NewSliceSource(bars)

	case config.SourceSynthetic:
		s := f.Synthetic
		rng := rand.New(rand.NewSource(s.Seed))
		gen := synthetic.NewBarGenerator(f.Name, rng, s.Start, f.Period,
			s.StartPrice, s.Mu, s.Sigma, s.DeltaT, s.Substeps, s.Count)
		gen.SetVolumeParameters(s.AvgVolume, s.VolumeVariance)
		gen.SetPriceDigits(s.PriceDigits)
		gen.SetVolumeDigits(s.VolumeDigits)
		source = gen

	default:
		return nil, closer, fmt.Errorf("feed %s: unknown source %q", f.Name, f.Source)
	}

	if f.Resample > 0 {
		source = simulation.NewAggregator(f.Resample, source)
	}
	return source, closer, nil
}

func newSeries(f config.Feed) *feed.Series {
	var options []feed.SeriesOption
	if f.Lookback > 0 {
		options = append(options, feed.WithLookback(uint(f.Lookback)))
	}
	return feed.NewSeries(f.Name, options...)
}
