package historical

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// BinaryBar is the on disk record of one bar, stored in native byte order.
type BinaryBar struct {
	TimeStamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (b BinaryBar) ToBar(bar *common.Bar) {
	bar.TimeStamp = time.Unix(0, b.TimeStamp).UTC()
	bar.Open = fixed.FromFloat64(b.Open)
	bar.High = fixed.FromFloat64(b.High)
	bar.Low = fixed.FromFloat64(b.Low)
	bar.Close = fixed.FromFloat64(b.Close)
	bar.Volume = fixed.FromFloat64(b.Volume)
}

func FromBar(bar common.Bar) BinaryBar {
	f := func(p fixed.Point) float64 {
		v, _ := p.Float64()
		return v
	}
	return BinaryBar{
		TimeStamp: bar.TimeStamp.UnixNano(),
		Open:      f(bar.Open),
		High:      f(bar.High),
		Low:       f(bar.Low),
		Close:     f(bar.Close),
		Volume:    f(bar.Volume),
	}
}

// WriteBars stores bars in the layout read by Source[BinaryBar].
func WriteBars(name string, bars []common.Bar) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", name, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(file)
	for i, bar := range bars {
		if err := binary.Write(w, binary.NativeEndian, FromBar(bar)); err != nil {
			return fmt.Errorf("unable to write bar %d: %w", i, err)
		}
	}
	return w.Flush()
}
