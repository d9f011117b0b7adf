package order

type Status int

const (
	Created Status = iota
	Submitted
	Accepted
	Partial
	Completed
	Canceled
	Expired
	Margin
	Rejected
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Submitted:
		return "submitted"
	case Accepted:
		return "accepted"
	case Partial:
		return "partial"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Expired:
		return "expired"
	case Margin:
		return "margin"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type ExecType int

const (
	Market ExecType = iota
	Close
	Limit
	Stop
	StopLimit
	StopTrail
	StopTrailLimit
	Historical
)

func (e ExecType) String() string {
	switch e {
	case Market:
		return "market"
	case Close:
		return "close"
	case Limit:
		return "limit"
	case Stop:
		return "stop"
	case StopLimit:
		return "stop_limit"
	case StopTrail:
		return "stop_trail"
	case StopTrailLimit:
		return "stop_trail_limit"
	case Historical:
		return "historical"
	default:
		return "unknown"
	}
}

// ParseExecType maps the String form back to an ExecType.
func ParseExecType(s string) (ExecType, bool) {
	for e := Market; e <= Historical; e++ {
		if e.String() == s {
			return e, true
		}
	}
	return Market, false
}

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}
