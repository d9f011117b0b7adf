// Package indicators holds streaming bar indicators used by strategies.
package indicators

import (
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Atr is Wilder's average true range.
type Atr struct {
	windowSize int
	count      int

	lastClose  fixed.Point
	currentAtr fixed.Point
	currentTr  fixed.Point
}

func NewAtr(windowSize int) *Atr {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Atr{windowSize: windowSize}
}

func (a *Atr) OnBar(b common.Bar) {
	defer func() {
		a.lastClose = b.Close
	}()

	a.currentTr = b.High.Sub(b.Low).Abs()
	if a.count > 0 {
		a.currentTr = fixed.Max(a.currentTr, b.High.Sub(a.lastClose).Abs())
		a.currentTr = fixed.Max(a.currentTr, b.Low.Sub(a.lastClose).Abs())
	}
	a.count++

	if a.count == 1 {
		a.currentAtr = a.currentTr
		return
	}
	a.currentAtr = a.currentAtr.MulInt(a.windowSize - 1).Add(a.currentTr).DivInt(a.windowSize)
}

func (a *Atr) Ready() bool {
	return a.count >= a.windowSize
}

func (a *Atr) TrueRange() fixed.Point {
	return a.currentTr
}

func (a *Atr) AverageTrueRange() fixed.Point {
	return a.currentAtr
}
