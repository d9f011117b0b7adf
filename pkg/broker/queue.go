package broker

import "github.com/peter-kozarec/barbroker/pkg/order"

// orderQueue is a FIFO of orders. A nil entry marks the end of a sweep.
type orderQueue struct {
	items []*order.Order
}

func (q *orderQueue) push(o *order.Order) {
	q.items = append(q.items, o)
}

func (q *orderQueue) pop() (*order.Order, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	o := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return o, true
}

// remove drops o by identity.
func (q *orderQueue) remove(o *order.Order) bool {
	for i, item := range q.items {
		if item != nil && item == o {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// removeBackward drops every order matching fn, scanning from the back, and
// returns them in scan order.
func (q *orderQueue) removeBackward(fn func(*order.Order) bool) []*order.Order {
	var removed []*order.Order
	for i := len(q.items) - 1; i >= 0; i-- {
		item := q.items[i]
		if item != nil && fn(item) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			removed = append(removed, item)
		}
	}
	return removed
}

func (q *orderQueue) orders() []*order.Order {
	out := make([]*order.Order, 0, len(q.items))
	for _, item := range q.items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

// compact drops end markers left by an interrupted sweep.
func (q *orderQueue) compact() {
	items := q.items[:0]
	for _, item := range q.items {
		if item != nil {
			items = append(items, item)
		}
	}
	q.items = items
}

func (q *orderQueue) len() int {
	return len(q.items)
}

func (q *orderQueue) reset() {
	q.items = nil
}
