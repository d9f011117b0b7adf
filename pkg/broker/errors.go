package broker

import "errors"

var (
	ErrNoCommissionInfo  = errors.New("no commission info for instrument")
	ErrInvalidLeverage   = errors.New("leverage must be positive")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrInvalidFillerSize = errors.New("filler size outside the remaining order size")
	ErrInvalidHistoryRow = errors.New("invalid history row")
	ErrEmptyFundHistory  = errors.New("fund history is empty")
	ErrNoData            = errors.New("no data registered")
	ErrUnknownExecType   = errors.New("unknown execution type")
)
