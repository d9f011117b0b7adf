package position

import (
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Book maps instruments to their positions and iterates them in the order
// they were first referenced.
type Book struct {
	positions map[feed.Data]*Position
	order     []feed.Data
}

func NewBook() *Book {
	return &Book{
		positions: make(map[feed.Data]*Position),
	}
}

// GetOrCreate returns the position of d, creating a flat one on first use.
func (b *Book) GetOrCreate(d feed.Data) *Position {
	if p, ok := b.positions[d]; ok {
		return p
	}
	p := New(fixed.Zero, fixed.Zero)
	b.positions[d] = p
	b.order = append(b.order, d)
	return p
}

func (b *Book) Find(d feed.Data) (*Position, bool) {
	p, ok := b.positions[d]
	return p, ok
}

func (b *Book) Count() int {
	return len(b.order)
}

// Each visits every position in insertion order until fn returns false.
func (b *Book) Each(fn func(feed.Data, *Position) bool) {
	for _, d := range b.order {
		if !fn(d, b.positions[d]) {
			return
		}
	}
}

func (b *Book) Reset() {
	b.positions = make(map[feed.Data]*Position)
	b.order = nil
}
