package broker

import (
	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

type Option func(*Broker)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// WithCash sets the starting cash.
func WithCash(cash fixed.Point) Option {
	return func(b *Broker) {
		b.startCash = cash
	}
}

// WithCheckSubmit toggles admission control of new orders against cash.
func WithCheckSubmit(check bool) Option {
	return func(b *Broker) {
		b.checkSubmit = check
	}
}

// WithFiller caps fill sizes by bar volume.
func WithFiller(filler Filler) Option {
	return func(b *Broker) {
		b.filler = filler
	}
}

// WithSlippagePerc slips fills by a fraction of the price. It takes
// precedence over WithSlippageFixed.
func WithSlippagePerc(perc fixed.Point) Option {
	return func(b *Broker) {
		b.slipPerc = perc
	}
}

func WithSlippageFixed(amount fixed.Point) Option {
	return func(b *Broker) {
		b.slipFixed = amount
	}
}

// WithSlipOpen applies slippage to fills at the bar open.
func WithSlipOpen(on bool) Option {
	return func(b *Broker) {
		b.slipOpen = on
	}
}

// WithSlipMatch clamps slipped prices to the bar range instead of skipping
// the fill.
func WithSlipMatch(on bool) Option {
	return func(b *Broker) {
		b.slipMatch = on
	}
}

// WithSlipLimit clamps slipped limit fills even when slip matching is off.
func WithSlipLimit(on bool) Option {
	return func(b *Broker) {
		b.slipLimit = on
	}
}

// WithSlipOut returns slipped prices outside the bar range unclamped.
func WithSlipOut(on bool) Option {
	return func(b *Broker) {
		b.slipOut = on
	}
}

// WithCheatOnClose fills market orders at the close of their creation bar.
func WithCheatOnClose(on bool) Option {
	return func(b *Broker) {
		b.coc = on
	}
}

// WithCheatOnOpen lets market orders fill at the open of the bar they were
// created on.
func WithCheatOnOpen(on bool) Option {
	return func(b *Broker) {
		b.coo = on
	}
}

// WithInterestToPnL books accrued credit interest as commission of the
// closing fill.
func WithInterestToPnL(on bool) Option {
	return func(b *Broker) {
		b.int2pnl = on
	}
}

// WithShortCash credits cash when shorting stock-like instruments.
func WithShortCash(on bool) Option {
	return func(b *Broker) {
		b.shortCash = on
	}
}

func WithFundMode(on bool, startValue fixed.Point) Option {
	return func(b *Broker) {
		b.fundMode = on
		b.fundStartVal = startValue
	}
}

// WithCommission registers info for the instrument name. The empty name is
// the default for instruments without their own entry.
func WithCommission(name string, info commission.Info) Option {
	return func(b *Broker) {
		b.commInfo[name] = info
	}
}
