package broker

import (
	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Value is cash plus the unlevered value of all positions at the last close.
func (b *Broker) Value() fixed.Point { return b.value }

// ValueLever is cash plus the levered value of all positions.
func (b *Broker) ValueLever() fixed.Point { return b.valueLever }

// MarketValue is the value of the positions alone.
func (b *Broker) MarketValue(lever bool) fixed.Point {
	if lever {
		return b.valueMktLever
	}
	return b.valueMkt
}

// ValueOf values the given instruments at their current close without
// touching broker state. A single instrument yields its raw position value;
// several yield cash plus their combined value.
func (b *Broker) ValueOf(datas []feed.Data, lever bool) (fixed.Point, error) {
	if len(datas) == 1 {
		d := datas[0]
		pos, ok := b.positions.Find(d)
		if !ok {
			return fixed.Zero, nil
		}
		info, err := b.Commission(d)
		if err != nil {
			return fixed.Zero, err
		}
		value, unrealized := b.positionValue(info, pos, d.Close(0))
		if lever && value.IsPos() {
			return value.Sub(unrealized).Div(info.Leverage()).Add(unrealized), nil
		}
		return value, nil
	}

	total, totalUnlever := fixed.Zero, fixed.Zero
	for _, d := range datas {
		pos, ok := b.positions.Find(d)
		if !ok {
			continue
		}
		info, err := b.Commission(d)
		if err != nil {
			return fixed.Zero, err
		}
		value, unlevered, _ := b.valueParts(info, pos, d.Close(0))
		total = total.Add(value)
		totalUnlever = totalUnlever.Add(unlevered)
	}
	if lever {
		return b.cash.Add(total), nil
	}
	return b.cash.Add(totalUnlever), nil
}

func (b *Broker) positionValue(info commission.Info, pos *position.Position, price fixed.Point) (fixed.Point, fixed.Point) {
	var value fixed.Point
	if b.shortCash {
		value = info.ValueSize(pos.Size, price)
	} else {
		value = info.Value(pos, price)
	}
	return value, info.ProfitAndLoss(pos.Size, pos.Price, price)
}

// valueParts returns the levered value, the unlevered value and the
// unrealized profit of pos.
func (b *Broker) valueParts(info commission.Info, pos *position.Position, price fixed.Point) (fixed.Point, fixed.Point, fixed.Point) {
	value, unrealized := b.positionValue(info, pos, price)
	if !b.shortCash {
		value = value.Abs()
	}
	if value.IsPos() {
		return value, value.Sub(unrealized).Div(info.Leverage()).Add(unrealized), unrealized
	}
	return value, value, unrealized
}

// updateValue recomputes every derived valuation figure from cash and
// positions.
func (b *Broker) updateValue() error {
	for _, c := range b.cashAdditions {
		if !b.fundValue.IsZero() {
			b.fundShares = b.fundShares.Add(c.Div(b.fundValue))
		}
		b.cash = b.cash.Add(c)
	}
	b.cashAdditions = nil

	posValue, posUnlever, unrealized := fixed.Zero, fixed.Zero, fixed.Zero
	var err error
	b.positions.Each(func(d feed.Data, pos *position.Position) bool {
		info, e := b.Commission(d)
		if e != nil {
			err = e
			return false
		}
		value, unlevered, unreal := b.valueParts(info, pos, d.Close(0))
		posValue = posValue.Add(value)
		posUnlever = posUnlever.Add(unlevered)
		unrealized = unrealized.Add(unreal)
		return true
	})
	if err != nil {
		return err
	}

	if len(b.fundHistory) == 0 {
		b.value = b.cash.Add(posUnlever)
		if !b.fundShares.IsZero() {
			b.fundValue = b.value.Div(b.fundShares)
		}
	} else {
		row, err := b.fundRow()
		if err != nil {
			return err
		}
		lev := posValue.Div(nonZero(posUnlever))

		b.value = row.NetAssetValue
		b.cash = row.NetAssetValue
		b.fundValue = row.ShareValue
		b.fundShares = row.NetAssetValue.Div(row.ShareValue)

		posUnlever = row.NetAssetValue
		posValue = row.NetAssetValue.Mul(lev)
	}

	b.valueMkt = posUnlever
	b.valueLever = b.cash.Add(posValue)
	b.valueMktLever = posValue
	b.unrealized = unrealized
	b.leverage = posValue.Div(nonZero(posUnlever))
	if b.leverage.IsNeg() {
		b.logger.Error("negative leverage ratio",
			zap.String("source", brokerComponentName),
			zap.String("leverage", b.leverage.String()),
			zap.String("position_value", posValue.String()),
			zap.String("unlevered_value", posUnlever.String()))
	}
	return nil
}

func nonZero(p fixed.Point) fixed.Point {
	if p.IsZero() {
		return fixed.One
	}
	return p
}
