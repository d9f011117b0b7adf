package bus

import (
	"context"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
)

type EventHandler[T any] = func(context.Context, T)

type BarEventHandler EventHandler[common.Bar]
type OrderEventHandler EventHandler[order.Notification]
type AccountEventHandler EventHandler[common.Account]

// MergeHandlers calls every non nil handler in order.
func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			if handler != nil {
				handler(ctx, event)
			}
		}
	}
}
