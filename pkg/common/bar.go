package common

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/peter-kozarec/barbroker/pkg/utility"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Bar is one OHLCV period of an instrument. TimeStamp is the period start.
type Bar struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
	Period      time.Duration       `json:"period"`
	Open        fixed.Point         `json:"open"`
	High        fixed.Point         `json:"high"`
	Low         fixed.Point         `json:"low"`
	Close       fixed.Point         `json:"close"`
	Volume      fixed.Point         `json:"volume"`
}

func (b Bar) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("symbol", b.Symbol)
	enc.AddTime("ts", b.TimeStamp)
	enc.AddDuration("period", b.Period)
	enc.AddString("open", b.Open.String())
	enc.AddString("high", b.High.String())
	enc.AddString("low", b.Low.String())
	enc.AddString("close", b.Close.String())
	enc.AddString("volume", b.Volume.String())
	return nil
}
