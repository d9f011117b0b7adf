package broker

import (
	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/order"
)

// submit queues o in its bracket group and transmits the group when o asks
// for it. The last transmitted order is returned.
func (b *Broker) submit(o *order.Order, check bool) *order.Order {
	pref, ok := b.takeChildren(o)
	if !ok {
		return o
	}

	b.children[pref] = append(b.children[pref], o)
	if !o.Transmit {
		return o
	}

	last := o
	for _, member := range b.children[pref] {
		if member.Status() != order.Created {
			continue
		}
		last = b.transmit(member, check)
	}
	return last
}

// takeChildren resolves the bracket group of o. Children of an unknown
// parent are rejected.
func (b *Broker) takeChildren(o *order.Order) (uint64, bool) {
	if o.Parent == nil {
		return o.Ref, true
	}
	pref := o.Parent.Ref
	if _, ok := b.children[pref]; !ok {
		b.logger.Warn("bracket parent not present",
			zap.String("source", brokerComponentName),
			zap.Uint64("ref", o.Ref),
			zap.Uint64("parent", pref))
		o.Reject()
		b.notify(o)
		return 0, false
	}
	return pref, true
}

func (b *Broker) transmit(o *order.Order, check bool) *order.Order {
	b.orders = append(b.orders, o)
	if check && b.checkSubmit {
		o.Submit()
		b.submitted = append(b.submitted, o)
		b.notify(o)
		return o
	}
	b.submitAccept(o)
	return o
}

func (b *Broker) submitAccept(o *order.Order) {
	o.ClearAnnotation()
	o.Submit()
	o.Accept()
	b.pending.push(o)
	b.notify(o)
}

func (b *Broker) ocoize(o *order.Order) {
	if o.OCO == nil {
		b.ocoLeader[o.Ref] = o.Ref
		b.ocoGroup[o.Ref] = append(b.ocoGroup[o.Ref], o.Ref)
		return
	}
	leader, ok := b.ocoLeader[o.OCO.Ref]
	if !ok {
		leader = o.OCO.Ref
	}
	b.ocoLeader[o.Ref] = leader
	b.ocoGroup[leader] = append(b.ocoGroup[leader], o.Ref)
}

// ococheck cancels the pending members of the group of o. A group cascades
// once.
func (b *Broker) ococheck(o *order.Order) {
	leader, ok := b.ocoLeader[o.Ref]
	if !ok {
		return
	}
	group, ok := b.ocoGroup[leader]
	if !ok {
		return
	}
	delete(b.ocoGroup, leader)

	members := make(map[uint64]struct{}, len(group))
	for _, ref := range group {
		members[ref] = struct{}{}
	}
	canceled := b.pending.removeBackward(func(c *order.Order) bool {
		_, ok := members[c.Ref]
		return ok
	})
	for _, c := range canceled {
		c.Cancel()
		b.notify(c)
	}
}

// bracketize tears down the group of o when o was canceled or is an
// executed child. An executed parent queues its children for activation on
// the next bar.
func (b *Broker) bracketize(o *order.Order, cancel bool) {
	pref := o.Ref
	if o.Parent != nil {
		pref = o.Parent.Ref
	}
	group := b.children[pref]

	if cancel || o.Parent != nil {
		delete(b.children, pref)
		for _, member := range group {
			b.cancel(member, true)
		}
		return
	}

	if len(group) > 0 {
		group = group[1:]
	}
	if len(group) == 0 {
		delete(b.children, pref)
		return
	}
	b.children[pref] = group
	b.toActivate = append(b.toActivate, group...)
}

// Cancel cancels a pending order. It is a no-op for orders that are not
// pending.
func (b *Broker) Cancel(o *order.Order) bool {
	return b.cancel(o, false)
}

func (b *Broker) cancel(o *order.Order, bracket bool) bool {
	if !b.pending.remove(o) {
		return false
	}
	o.Cancel()
	b.notify(o)
	b.ococheck(o)
	if !bracket {
		b.bracketize(o, true)
	}
	return true
}
