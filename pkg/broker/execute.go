package broker

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/position"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// commissions returns the info pricing the position of o and the info
// charging its fees, which differs for compensated instruments.
func (b *Broker) commissions(o *order.Order) (commission.Info, commission.Info, error) {
	info, err := b.Commission(o.Data)
	if err != nil {
		return nil, nil, err
	}
	fees := info
	if comp := feed.CompensationOf(o.Data); comp != nil {
		if fees, err = b.Commission(comp); err != nil {
			return nil, nil, err
		}
	}
	return info, fees, nil
}

// legValue is the cash value of trading size at price.
func (b *Broker) legValue(info commission.Info, size, price fixed.Point) fixed.Point {
	if b.shortCash {
		return info.ValueSize(size, price)
	}
	return info.OperationCost(size, price)
}

func unlever(info commission.Info, value fixed.Point) fixed.Point {
	if value.IsPos() {
		return value.Div(info.Leverage())
	}
	return value
}

// execute fills o at price on the bar ago bars back and books the result.
// A non zero dtcoc overrides the fill time.
func (b *Broker) execute(o *order.Order, ago int, price fixed.Point, dtcoc time.Time) error {
	size := o.Executed.RemSize
	if b.filler != nil {
		fill := b.filler.Fill(o, price, ago)
		if fill.IsNeg() || fill.Gt(size.Abs()) {
			return fmt.Errorf("order %d size %s remaining %s: %w", o.Ref, fill, size.Abs(), ErrInvalidFillerSize)
		}
		if !o.IsBuy() {
			fill = fill.Neg()
		}
		size = fill
	}

	info, fees, err := b.commissions(o)
	if err != nil {
		return err
	}

	pos := b.positions.GetOrCreate(o.Data)
	entry := pos.Price
	psize, pprice, opened, closed := pos.PseudoUpdate(size, price)
	pnl := info.ProfitAndLoss(closed.Neg(), entry, price)
	cash := b.cash

	closedValue, closedComm := fixed.Zero, fixed.Zero
	if !closed.IsZero() {
		closedValue = b.legValue(info, closed.Neg(), entry)
		cash = cash.Add(unlever(info, closedValue))
		if info.StockLike() {
			cash = cash.Add(pnl)
		}
		closedComm = info.Commission(closed, price)
		cash = cash.Sub(closedComm)
		if base, ok := pos.AdjBase(); ok {
			cash = cash.Add(info.CashAdjust(closed.Neg(), base, price))
		}
		b.cash = cash
	}

	requested := opened
	openedValue, openedComm := fixed.Zero, fixed.Zero
	if !opened.IsZero() {
		openedValue = b.legValue(info, opened, price)
		cash = cash.Sub(unlever(info, openedValue))
		openedComm = fees.Commission(opened, price)
		cash = cash.Sub(openedComm)

		if cash.IsNeg() {
			opened = fixed.Zero
			openedValue = fixed.Zero
			openedComm = fixed.Zero
		} else {
			if psize.Abs().Gt(opened.Abs()) {
				if base, ok := pos.AdjBase(); ok {
					cash = cash.Add(info.CashAdjust(psize.Sub(opened), base, price))
				}
			}
			pos.SetAdjBase(price)
			b.cash = cash
		}
	}

	executed := closed.Add(opened)
	if !executed.IsZero() {
		info.ConfirmExec(executed, price)
		pos.Update(executed, price, o.Data.DateTime(0))

		if !closed.IsZero() && b.int2pnl {
			if accrued, ok := b.credit[o.Data]; ok {
				closedComm = closedComm.Add(accrued)
				delete(b.credit, o.Data)
			}
		}

		dt := o.Data.DateTime(ago)
		if !dtcoc.IsZero() {
			dt = dtcoc
		}
		o.Execute(order.ExecutionBit{
			DateTime:    dt,
			Size:        executed,
			Price:       price,
			Closed:      closed,
			ClosedValue: closedValue,
			ClosedComm:  closedComm,
			Opened:      opened,
			OpenedValue: openedValue,
			OpenedComm:  openedComm,
			PnL:         pnl,
			PSize:       psize,
			PPrice:      pprice,
		}, info.Margin(price))
		o.AddCommInfo(info)

		b.logger.Debug("order executed",
			zap.String("source", brokerComponentName),
			zap.Uint64("ref", o.Ref),
			zap.String("size", executed.String()),
			zap.String("price", price.String()),
			zap.String("pnl", pnl.String()),
			zap.String("cash", b.cash.String()))

		b.notify(o)
		b.ococheck(o)
	}

	if !requested.IsZero() && opened.IsZero() {
		o.Margin()
		b.notify(o)
		b.ococheck(o)
		b.bracketize(o, true)
	}
	return nil
}

// pseudoExecute returns the cash left after filling o at its reference price
// against the scratch position pos. Only pos is mutated.
func (b *Broker) pseudoExecute(o *order.Order, cash fixed.Point, pos *position.Position) (fixed.Point, error) {
	info, fees, err := b.commissions(o)
	if err != nil {
		return fixed.Zero, err
	}

	price := o.Created.Price
	if b.coo && o.ExecType == order.Market {
		price = o.Data.Open(0)
	}

	_, _, opened, closed := pos.Update(o.Executed.RemSize, price, time.Time{})

	if !closed.IsZero() {
		cash = cash.Add(unlever(info, b.legValue(info, closed.Neg(), price)))
		cash = cash.Sub(info.Commission(closed, price))
	}
	if !opened.IsZero() {
		cash = cash.Sub(unlever(info, b.legValue(info, opened, price)))
		cash = cash.Sub(fees.Commission(opened, price))
	}
	return cash, nil
}
