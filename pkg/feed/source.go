package feed

import (
	"errors"

	"github.com/peter-kozarec/barbroker/pkg/common"
)

var ErrEof = errors.New("EOF")

// BarSource yields bars in chronological order and ErrEof when exhausted.
type BarSource interface {
	GetNext() (common.Bar, error)
}

// SliceSource replays a fixed set of bars.
type SliceSource struct {
	bars []common.Bar
	idx  int
}

func NewSliceSource(bars []common.Bar) *SliceSource {
	return &SliceSource{bars: bars}
}

func (s *SliceSource) GetNext() (common.Bar, error) {
	if s.idx >= len(s.bars) {
		return common.Bar{}, ErrEof
	}
	bar := s.bars[s.idx]
	s.idx++
	return bar, nil
}
