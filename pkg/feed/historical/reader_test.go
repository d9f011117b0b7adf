package historical

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func writeFixture(t *testing.T, n int) string {
	t.Helper()
	bars := make([]common.Bar, n)
	for i := range bars {
		price := fixed.FromInt(100+i, 0)
		bars[i] = common.Bar{
			TimeStamp: day0.AddDate(0, 0, i),
			Open:      price,
			High:      price.Add(fixed.One),
			Low:       price.Sub(fixed.One),
			Close:     price,
			Volume:    fixed.FromInt(1000, 0),
		}
	}
	name := filepath.Join(t.TempDir(), "bars.bin")
	require.NoError(t, WriteBars(name, bars))
	return name
}

func open(t *testing.T, name string) *Source[BinaryBar] {
	t.Helper()
	src := NewSource[BinaryBar](name)
	require.NoError(t, src.Open())
	t.Cleanup(src.Close)
	return src
}

func drain(t *testing.T, r *BarReader) []common.Bar {
	t.Helper()
	var bars []common.Bar
	for {
		bar, err := r.GetNext()
		if err != nil {
			require.ErrorIs(t, err, feed.ErrEof)
			return bars
		}
		bars = append(bars, bar)
	}
}

func TestSource_EntryCount(t *testing.T) {
	src := open(t, writeFixture(t, 5))

	n, err := src.EntryCount()
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	var b BinaryBar
	require.NoError(t, src.Read(4, &b))
	assert.Equal(t, 104.0, b.Close)
	assert.ErrorIs(t, src.Read(5, &b), ErrEof)
	assert.ErrorIs(t, src.Read(-1, &b), ErrEof)
}

func TestSource_NotOpen(t *testing.T) {
	src := NewSource[BinaryBar](filepath.Join(t.TempDir(), "missing.bin"))

	var b BinaryBar
	assert.ErrorIs(t, src.Read(0, &b), ErrNotOpen)
	_, err := src.EntryCount()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.Error(t, src.Open())
}

func TestSource_Truncated(t *testing.T) {
	name := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(name, make([]byte, 13), 0o600))

	src := open(t, name)
	_, err := src.EntryCount()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestBarReader_Range(t *testing.T) {
	src := open(t, writeFixture(t, 10))

	r := NewBarReader(src, "abc", 24*time.Hour, day0.AddDate(0, 0, 3), day0.AddDate(0, 0, 6))
	bars := drain(t, r)

	require.Len(t, bars, 4)
	assert.Equal(t, day0.AddDate(0, 0, 3), bars[0].TimeStamp)
	assert.True(t, bars[0].Close.Eq(fixed.FromInt(103, 0)))
	assert.True(t, bars[3].High.Eq(fixed.FromInt(107, 0)))
	assert.Equal(t, "abc", bars[0].Symbol)
	assert.Equal(t, 24*time.Hour, bars[0].Period)
	assert.NotZero(t, bars[0].TraceID)
}

func TestBarReader_WholeFile(t *testing.T) {
	src := open(t, writeFixture(t, 3))

	r := NewBarReader(src, "abc", 0, day0.AddDate(-1, 0, 0), day0.AddDate(1, 0, 0))
	assert.Len(t, drain(t, r), 3)
}

func TestBarReader_FromAfterLastBar(t *testing.T) {
	src := open(t, writeFixture(t, 3))

	r := NewBarReader(src, "abc", 0, day0.AddDate(0, 1, 0), day0.AddDate(1, 0, 0))
	assert.Empty(t, drain(t, r))
}

func TestBarReader_FeedsSeries(t *testing.T) {
	src := open(t, writeFixture(t, 4))
	r := NewBarReader(src, "abc", 0, day0, day0.AddDate(0, 0, 10))

	s := feed.NewSeries("abc")
	for _, bar := range drain(t, r) {
		require.NoError(t, s.Push(bar))
	}
	assert.Equal(t, 4, s.Len())
	assert.True(t, s.Close(0).Eq(fixed.FromInt(103, 0)))
	assert.True(t, s.Close(-1).Eq(fixed.FromInt(102, 0)))
}
