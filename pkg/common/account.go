package common

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/peter-kozarec/barbroker/pkg/utility"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Account is the broker valuation taken at the end of a bar.
type Account struct {
	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Cash        fixed.Point         `json:"cash"`
	Value       fixed.Point         `json:"value"`
	ValueLever  fixed.Point         `json:"value_lever"`
	Leverage    fixed.Point         `json:"leverage"`
	Unrealized  fixed.Point         `json:"unrealized"`
	FundShares  fixed.Point         `json:"fund_shares"`
	FundValue   fixed.Point         `json:"fund_value"`
}

func (a Account) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddTime("ts", a.TimeStamp)
	enc.AddString("cash", a.Cash.String())
	enc.AddString("value", a.Value.String())
	enc.AddString("leverage", a.Leverage.String())
	enc.AddString("unrealized", a.Unrealized.String())
	if !a.FundShares.IsZero() {
		enc.AddString("fund_shares", a.FundShares.String())
		enc.AddString("fund_value", a.FundValue.String())
	}
	return nil
}
