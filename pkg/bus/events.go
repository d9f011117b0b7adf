package bus

type EventId uint8

const (
	BarEvent EventId = iota
	OrderEvent
	AccountEvent
)

func (id EventId) String() string {
	switch id {
	case BarEvent:
		return "bar"
	case OrderEvent:
		return "order"
	case AccountEvent:
		return "account"
	default:
		return "unknown"
	}
}
