package broker

import (
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/position"
)

// checkSubmitted admits submitted orders in arrival order against a shared
// running cash total and scratch copies of the positions.
func (b *Broker) checkSubmitted() error {
	cash := b.cash
	scratch := make(map[feed.Data]*position.Position)

	for len(b.submitted) > 0 {
		o := b.submitted[0]
		b.submitted[0] = nil
		b.submitted = b.submitted[1:]

		if _, ok := b.takeChildren(o); !ok {
			continue
		}

		pos, ok := scratch[o.Data]
		if !ok {
			pos = b.positions.GetOrCreate(o.Data).Clone()
			scratch[o.Data] = pos
		}

		var err error
		if cash, err = b.pseudoExecute(o, cash, pos); err != nil {
			return err
		}
		if !cash.IsNeg() {
			b.submitAccept(o)
			continue
		}

		o.Margin()
		b.notify(o)
		b.ococheck(o)
		b.bracketize(o, true)
	}
	return nil
}
