package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

func bar(ts time.Time, o, h, l, c string) common.Bar {
	return common.Bar{
		TimeStamp: ts,
		Open:      fixed.MustParse(o),
		High:      fixed.MustParse(h),
		Low:       fixed.MustParse(l),
		Close:     fixed.MustParse(c),
		Volume:    fixed.FromInt(1000, 0),
	}
}

func TestSeries_Lookback(t *testing.T) {
	s := NewSeries("AAA", WithLookback(3))
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Push(bar(t0, "100", "105", "98", "102")))
	require.NoError(t, s.Push(bar(t0.Add(24*time.Hour), "103", "104", "101", "101")))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Open(0).Eq(fixed.MustParse("103")))
	assert.True(t, s.Close(-1).Eq(fixed.MustParse("102")))
	assert.Equal(t, t0, s.DateTime(-1))
	assert.True(t, s.Close(-5).IsZero())
	assert.True(t, s.DateTime(1).IsZero())
}

func TestSeries_PushOutOfOrder(t *testing.T) {
	s := NewSeries("AAA")
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Push(bar(t0, "1", "1", "1", "1")))
	err := s.Push(bar(t0, "1", "1", "1", "1"))
	assert.True(t, errors.Is(err, ErrOutOfOrder))
}

func TestSeries_TickOverride(t *testing.T) {
	s := NewSeries("AAA")
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Push(bar(t0, "100", "105", "98", "102")))

	assert.True(t, BarPrices(s).Open.Eq(fixed.MustParse("100")))

	s.SetTick(Prices{Open: fixed.MustParse("101"), High: fixed.MustParse("101"), Low: fixed.MustParse("101"), Close: fixed.MustParse("101")})
	assert.True(t, BarPrices(s).Open.Eq(fixed.MustParse("101")))

	require.NoError(t, s.Push(bar(t0.Add(time.Hour), "100", "105", "98", "102")))
	assert.True(t, BarPrices(s).Open.Eq(fixed.MustParse("100")))
}

func TestSeries_TickOverridePartial(t *testing.T) {
	s := NewSeries("AAA")
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Push(bar(t0, "100", "105", "98", "102")))

	s.SetTick(Prices{Close: fixed.MustParse("103")})
	got := BarPrices(s)
	assert.True(t, got.Open.Eq(fixed.MustParse("100")))
	assert.True(t, got.High.Eq(fixed.MustParse("105")))
	assert.True(t, got.Low.Eq(fixed.MustParse("98")))
	assert.True(t, got.Close.Eq(fixed.MustParse("103")))
}

func TestSeries_SessionEnd(t *testing.T) {
	s := NewSeries("AAA", WithSessionEnd(16, 0, 0))
	ts := time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), s.SessionEnd(ts))
}

func TestSeries_Compensation(t *testing.T) {
	other := NewSeries("BBB")
	s := NewSeries("AAA", WithCompensation(other))

	assert.Equal(t, Data(other), CompensationOf(s))
	assert.Nil(t, CompensationOf(other))
}

func TestSliceSource_GetNext(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	src := NewSliceSource([]common.Bar{bar(t0, "1", "1", "1", "1")})

	_, err := src.GetNext()
	require.NoError(t, err)
	_, err = src.GetNext()
	assert.ErrorIs(t, err, ErrEof)
}
