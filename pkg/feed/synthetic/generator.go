// Package synthetic generates bars from a geometric brownian motion.
package synthetic

import (
	"math"
	"math/rand"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/utility"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

const (
	barGeneratorComponentName = "feed.synthetic.generator"
)

var (
	pointFive = fixed.FromInt64(5, 1)
)

// BarGenerator builds each bar from a number of GBM steps. Open, high, low
// and close follow the path of the steps inside the bar.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	period   time.Duration
	substeps int
	bars     int
	t        int

	avgVolume      fixed.Point
	volumeVariance float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	lastTime  time.Time
	lastPrice fixed.Point

	normPriceDigits  int
	normVolumeDigits int
}

// NewBarGenerator creates a generator of count bars. mu and sigma are per
// unit of deltaT, which is the length of one step.
func NewBarGenerator(
	symbol string,
	rng *rand.Rand,
	startTime time.Time,
	period time.Duration,
	startPrice, mu, sigma, deltaT fixed.Point,
	substeps, count int) *BarGenerator {

	if substeps < 1 {
		substeps = 1
	}

	return &BarGenerator{
		symbol:   symbol,
		rng:      rng,
		period:   period,
		substeps: substeps,
		bars:     count,

		avgVolume:      fixed.FromInt64(1000, 0),
		volumeVariance: 0.5,

		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		lastTime:  startTime.Add(-period),
		lastPrice: startPrice,

		normPriceDigits:  2,
		normVolumeDigits: 0,
	}
}

func (g *BarGenerator) SetVolumeParameters(avgVol fixed.Point, volVariance float64) {
	g.avgVolume = avgVol
	g.volumeVariance = volVariance
}

func (g *BarGenerator) SetPriceDigits(digits int) {
	g.normPriceDigits = digits
}

func (g *BarGenerator) SetVolumeDigits(digits int) {
	g.normVolumeDigits = digits
}

func (g *BarGenerator) GetNext() (common.Bar, error) {
	var bar common.Bar

	if g.t >= g.bars {
		return bar, feed.ErrEof
	}
	g.t++

	open := g.lastPrice.Rescale(g.normPriceDigits)
	high, low := open, open
	for i := 0; i < g.substeps; i++ {
		g.step()
		price := g.lastPrice.Rescale(g.normPriceDigits)
		high = fixed.Max(high, price)
		low = fixed.Min(low, price)
	}

	g.lastTime = g.lastTime.Add(g.period)

	bar.TimeStamp = g.lastTime
	bar.Period = g.period
	bar.Open = open
	bar.High = high
	bar.Low = low
	bar.Close = g.lastPrice.Rescale(g.normPriceDigits)
	bar.Volume = g.generateVolume()

	bar.Source = barGeneratorComponentName
	bar.Symbol = g.symbol
	bar.ExecutionId = utility.GetExecutionID()
	bar.TraceID = utility.CreateTraceID()

	return bar, nil
}

func (g *BarGenerator) step() {
	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())
}

func (g *BarGenerator) generateVolume() fixed.Point {
	variation := g.rng.NormFloat64() * g.volumeVariance
	factor := math.Max(0.1, 1+variation)
	return g.avgVolume.Mul(fixed.FromFloat64(factor)).Rescale(g.normVolumeDigits)
}
