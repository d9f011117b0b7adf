package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

var ErrNoSnapshots = errors.New("no account snapshots")

type accountSnapshot struct {
	cash  fixed.Point
	value fixed.Point
	t     time.Time
}

// Trade is one closing execution against an open position. Size is the
// closed amount, negative when a long position was reduced.
type Trade struct {
	Data      string
	OpenTime  time.Time
	CloseTime time.Time
	Size      fixed.Point
	PnL       fixed.Point
	Comm      fixed.Point
	NetProfit fixed.Point
}

// Audit collects account snapshots and closed trades from the event stream.
type Audit struct {
	minSnapshotInterval time.Duration

	accountSnapshots []accountSnapshot
	trades           []Trade
	openedAt         map[string]time.Time
}

func NewAudit(minSnapshotInterval time.Duration) *Audit {
	return &Audit{
		minSnapshotInterval: minSnapshotInterval,
		openedAt:            make(map[string]time.Time),
	}
}

func (a *Audit) OnAccount(_ context.Context, acc common.Account) {
	a.AddAccountSnapshot(acc.Cash, acc.Value, acc.TimeStamp)
}

// OnOrder books the execution carried by a fill notification. Each fill is
// notified once, so the newest bit is the one to record.
func (a *Audit) OnOrder(_ context.Context, n order.Notification) {
	o := n.Order
	if o == nil || (o.Status() != order.Partial && o.Status() != order.Completed) {
		return
	}
	bits := o.Executed.Bits
	if len(bits) == 0 {
		return
	}
	name := ""
	if o.Data != nil {
		name = o.Data.Name()
	}
	a.AddExecution(name, bits[len(bits)-1])
}

func (a *Audit) AddAccountSnapshot(cash, value fixed.Point, t time.Time) {
	if len(a.accountSnapshots) == 0 ||
		t.Sub(a.accountSnapshots[len(a.accountSnapshots)-1].t) >= a.minSnapshotInterval {
		a.accountSnapshots = append(a.accountSnapshots, accountSnapshot{
			cash:  cash,
			value: value,
			t:     t,
		})
	}
}

func (a *Audit) AddExecution(data string, bit order.ExecutionBit) {
	if !bit.Closed.IsZero() {
		net := bit.PnL.Sub(bit.ClosedComm)
		a.trades = append(a.trades, Trade{
			Data:      data,
			OpenTime:  a.openedAt[data],
			CloseTime: bit.DateTime,
			Size:      bit.Closed,
			PnL:       bit.PnL,
			Comm:      bit.ClosedComm,
			NetProfit: net,
		})
		if bit.PSize.Sub(bit.Opened).IsZero() {
			delete(a.openedAt, data)
		}
	}
	if !bit.Opened.IsZero() {
		if _, ok := a.openedAt[data]; !ok || !bit.Closed.IsZero() {
			a.openedAt[data] = bit.DateTime
		}
	}
}

func (a *Audit) Trades() []Trade {
	return a.trades
}

func (a *Audit) GenerateReport() (Report, error) {
	report := Report{}
	if len(a.accountSnapshots) == 0 {
		return report, ErrNoSnapshots
	}

	auditedDays := a.dayCount()
	first := a.accountSnapshots[0]
	last := a.accountSnapshots[len(a.accountSnapshots)-1]

	report.InitialValue = first.value
	report.StartDate = first.t
	report.FinalValue = last.value
	report.FinalCash = last.cash
	report.EndDate = last.t

	// --- Return Metrics ---
	if report.InitialValue.IsPos() {
		report.TotalReturn = report.FinalValue.Div(report.InitialValue).Sub(fixed.One).Mul(fixed.Hundred).Rescale(2)
	}
	if auditedDays > 0 && report.InitialValue.IsPos() && report.FinalValue.IsPos() {
		ratio := report.FinalValue.Div(report.InitialValue)
		exponent := fixed.Year.DivInt(auditedDays)
		report.AnnualizedReturn = ratio.Pow(exponent).Sub(fixed.One).Mul(fixed.Hundred).Rescale(2)
	}

	// --- Max Drawdown ---
	peak := report.InitialValue
	for _, snapshot := range a.accountSnapshots {
		if snapshot.value.Gt(peak) {
			peak = snapshot.value
		}
		if !peak.IsPos() {
			continue
		}
		drawdown := peak.Sub(snapshot.value).Div(peak)
		if drawdown.Gt(report.MaxDrawdown) {
			report.MaxDrawdown = drawdown
		}
	}

	// --- Trade Statistics ---
	var (
		totalDuration time.Duration
		timedTrades   int
		totalProfit   fixed.Point
		totalLoss     fixed.Point
	)
	for _, trade := range a.trades {
		report.TotalTrades++
		if trade.Size.IsNeg() {
			report.LongTrades++
		} else {
			report.ShortTrades++
		}
		report.TotalCommission = report.TotalCommission.Add(trade.Comm)

		if !trade.OpenTime.IsZero() && trade.CloseTime.After(trade.OpenTime) {
			totalDuration += trade.CloseTime.Sub(trade.OpenTime)
			timedTrades++
		}

		if trade.NetProfit.IsPos() {
			totalProfit = totalProfit.Add(trade.NetProfit)
			report.WinningTrades++
		} else {
			totalLoss = totalLoss.Add(trade.NetProfit.Neg())
			report.LosingTrades++
		}
	}

	report.GrossProfit = totalProfit
	report.GrossLoss = totalLoss

	// --- Averages & Ratios ---
	if report.WinningTrades > 0 {
		report.AverageWin = totalProfit.DivInt(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLoss.DivInt(report.LosingTrades)
	}
	if totalLoss.IsPos() {
		report.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if report.AverageLoss.IsPos() {
		report.RiskRewardRatio = report.AverageWin.Div(report.AverageLoss)
	}
	if report.TotalTrades > 0 {
		report.Expectancy = totalProfit.Sub(totalLoss).DivInt(report.TotalTrades)
		report.WinRate = fixed.FromInt(report.WinningTrades, 0).DivInt(report.TotalTrades).Mul(fixed.Hundred).Rescale(2)
	}
	if timedTrades > 0 {
		report.AverageTradeDuration = totalDuration / time.Duration(timedTrades)
	}
	if report.MaxDrawdown.IsPos() {
		report.RecoveryFactor = report.TotalReturn.Div(report.MaxDrawdown.Mul(fixed.Hundred)).Rescale(2)
	}
	report.MaxDrawdown = report.MaxDrawdown.Mul(fixed.Hundred).Rescale(2)

	// --- Risk Metrics: Volatility, Sharpe, Sortino ---
	dailyReturns := a.dailyReturns()
	meanReturn := fixed.Mean(dailyReturns)
	vol := fixed.StdDev(dailyReturns, meanReturn)

	if !meanReturn.IsZero() && !vol.IsZero() {
		report.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).Mul(fixed.Hundred).Rescale(2)
		report.SharpeRatio = fixed.SharpeRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		report.SortinoRatio = fixed.SortinoRatio(dailyReturns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return report, nil
}

func (a *Audit) dayCount() int {
	if len(a.accountSnapshots) < 2 {
		return 1
	}
	start := a.accountSnapshots[0].t
	end := a.accountSnapshots[len(a.accountSnapshots)-1].t
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var dailyReturns []fixed.Point
	if len(a.accountSnapshots) < 2 {
		return dailyReturns
	}

	var (
		prevDate  = a.accountSnapshots[0].t.Truncate(24 * time.Hour)
		prevValue = a.accountSnapshots[0].value
	)

	for _, snapshot := range a.accountSnapshots[1:] {
		currDate := snapshot.t.Truncate(24 * time.Hour)

		if currDate.After(prevDate) {
			if prevValue.IsPos() {
				dailyReturns = append(dailyReturns, snapshot.value.Div(prevValue).Sub(fixed.One))
			}
			prevDate = currDate
			prevValue = snapshot.value
		}
	}

	return dailyReturns
}
