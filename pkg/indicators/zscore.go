package indicators

import (
	"github.com/peter-kozarec/barbroker/pkg/utility/circular"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// ZScore measures how far the newest point lies from the window mean in
// units of the window's standard deviation.
type ZScore struct {
	data *circular.Buffer[fixed.Point]
}

func NewZScore(windowSize int) *ZScore {
	if windowSize < 2 {
		windowSize = 2
	}
	return &ZScore{
		data: circular.NewBuffer[fixed.Point](uint(windowSize)),
	}
}

func (z *ZScore) AddPoint(p fixed.Point) {
	z.data.Push(p)
}

func (z *ZScore) IsReady() bool {
	return z.data.IsFull()
}

func (z *ZScore) Mean() fixed.Point {
	return fixed.Mean(z.points())
}

// Value is zero until the window is full or while the window is flat.
func (z *ZScore) Value() fixed.Point {
	if !z.IsReady() {
		return fixed.Zero
	}
	points := z.points()
	mean := fixed.Mean(points)
	stdDev := fixed.StdDev(points, mean)
	if stdDev.IsZero() {
		return fixed.Zero
	}
	return points[0].Sub(mean).Div(stdDev)
}

// points lists the window newest first.
func (z *ZScore) points() []fixed.Point {
	out := make([]fixed.Point, 0, z.data.Size())
	for i := uint(0); i < z.data.Size(); i++ {
		p, _ := z.data.Get(i)
		out = append(out, p)
	}
	return out
}
