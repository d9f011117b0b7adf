package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

func p(s string) fixed.Point { return fixed.MustParse(s) }

func bar(h, l, c string) common.Bar {
	return common.Bar{High: p(h), Low: p(l), Close: p(c)}
}

func TestAtr(t *testing.T) {
	atr := NewAtr(3)
	assert.False(t, atr.Ready())

	atr.OnBar(bar("100", "95", "98"))
	assert.True(t, atr.AverageTrueRange().Eq(p("5")))

	// gap up: high minus previous close dominates
	atr.OnBar(bar("106", "103", "105"))
	assert.True(t, atr.TrueRange().Eq(p("8")))
	assert.True(t, atr.AverageTrueRange().Eq(p("6")))
	assert.False(t, atr.Ready())

	// gap down: previous close minus low dominates
	atr.OnBar(bar("101", "99", "100"))
	assert.True(t, atr.TrueRange().Eq(p("6")))
	assert.True(t, atr.AverageTrueRange().Eq(p("6")))
	assert.True(t, atr.Ready())
}

func TestZScore(t *testing.T) {
	z := NewZScore(4)
	for _, v := range []string{"10", "10", "10"} {
		z.AddPoint(p(v))
	}
	assert.False(t, z.IsReady())
	assert.True(t, z.Value().IsZero())

	z.AddPoint(p("10"))
	assert.True(t, z.IsReady())
	assert.True(t, z.Value().IsZero(), "flat window")

	z.AddPoint(p("14"))
	// window 10 10 10 14: mean 11, population deviation sqrt(3)
	assert.True(t, z.Mean().Eq(p("11")))
	assert.True(t, z.Value().Gt(p("1.73")) && z.Value().Lt(p("1.74")), z.Value().String())
}
