package order

import (
	"time"

	"github.com/peter-kozarec/barbroker/pkg/utility"
)

// Notification is an order snapshot as delivered to strategies.
type Notification struct {
	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Order       *Order              `json:"-"`
}

func (n Notification) Status() Status {
	if n.Order == nil {
		return Created
	}
	return n.Order.Status()
}
