package simulation

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// Report summarises one run. Percentages are scaled by 100.
type Report struct {
	StartDate        time.Time
	EndDate          time.Time
	InitialValue     fixed.Point
	FinalValue       fixed.Point
	FinalCash        fixed.Point
	TotalReturn      fixed.Point
	AnnualizedReturn fixed.Point
	MaxDrawdown      fixed.Point
	RecoveryFactor   fixed.Point

	TotalTrades          int
	LongTrades           int
	ShortTrades          int
	WinningTrades        int
	LosingTrades         int
	WinRate              fixed.Point
	GrossProfit          fixed.Point
	GrossLoss            fixed.Point
	Expectancy           fixed.Point
	ProfitFactor         fixed.Point
	AverageWin           fixed.Point
	AverageLoss          fixed.Point
	RiskRewardRatio      fixed.Point
	TotalCommission      fixed.Point
	AverageTradeDuration time.Duration

	SharpeRatio          fixed.Point
	SortinoRatio         fixed.Point
	AnnualizedVolatility fixed.Point
}

type reportSection func(zapcore.ObjectEncoder)

func (s reportSection) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	s(enc)
	return nil
}

func percent(p fixed.Point) string { return p.String() + "%" }

func (r Report) account(enc zapcore.ObjectEncoder) {
	enc.AddTime("start", r.StartDate)
	enc.AddTime("end", r.EndDate)
	enc.AddString("initial_value", r.InitialValue.String())
	enc.AddString("final_value", r.FinalValue.String())
	enc.AddString("final_cash", r.FinalCash.String())
	enc.AddString("total_return", percent(r.TotalReturn))
	enc.AddString("annualized_return", percent(r.AnnualizedReturn))
	enc.AddString("max_drawdown", percent(r.MaxDrawdown))
	enc.AddString("recovery_factor", r.RecoveryFactor.String())
}

func (r Report) trades(enc zapcore.ObjectEncoder) {
	enc.AddInt("total", r.TotalTrades)
	enc.AddInt("long", r.LongTrades)
	enc.AddInt("short", r.ShortTrades)
	enc.AddInt("won", r.WinningTrades)
	enc.AddInt("lost", r.LosingTrades)
	enc.AddString("win_rate", percent(r.WinRate))
	enc.AddString("gross_profit", r.GrossProfit.String())
	enc.AddString("gross_loss", r.GrossLoss.String())
	enc.AddString("expectancy", r.Expectancy.String())
	enc.AddString("profit_factor", r.ProfitFactor.String())
	enc.AddString("average_win", r.AverageWin.String())
	enc.AddString("average_loss", r.AverageLoss.String())
	enc.AddString("risk_reward_ratio", r.RiskRewardRatio.String())
	enc.AddString("commission", r.TotalCommission.String())
	enc.AddDuration("average_duration", r.AverageTradeDuration)
}

func (r Report) risk(enc zapcore.ObjectEncoder) {
	enc.AddString("sharpe_ratio", r.SharpeRatio.String())
	enc.AddString("sortino_ratio", r.SortinoRatio.String())
	enc.AddString("annualized_volatility", percent(r.AnnualizedVolatility))
}

// Print logs the account, trade and risk sections as separate entries.
func (r Report) Print(logger *zap.Logger) {
	logger.Info("performance report", zap.Object("account", reportSection(r.account)))
	logger.Info("trade statistics", zap.Object("trades", reportSection(r.trades)))
	logger.Info("risk metrics", zap.Object("risk", reportSection(r.risk)))
}
