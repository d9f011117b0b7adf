// Package config loads the YAML description of a backtest run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/peter-kozarec/barbroker/pkg/broker"
	"github.com/peter-kozarec/barbroker/pkg/commission"
	"github.com/peter-kozarec/barbroker/pkg/middleware"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

type Config struct {
	Logging  Logging  `yaml:"logging"`
	Broker   Broker   `yaml:"broker"`
	Feeds    []Feed   `yaml:"feeds"`
	History  History  `yaml:"history"`
	Strategy Strategy `yaml:"strategy"`
	Router   Router   `yaml:"router"`
	Monitor  []string `yaml:"monitor"`
	Audit    Audit    `yaml:"audit"`
	Metrics  Metrics  `yaml:"metrics"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Broker struct {
	Cash          fixed.Point  `yaml:"cash"`
	CheckSubmit   *bool        `yaml:"check_submit"`
	CheatOnClose  bool         `yaml:"cheat_on_close"`
	CheatOnOpen   bool         `yaml:"cheat_on_open"`
	SlippagePerc  fixed.Point  `yaml:"slippage_perc"`
	SlippageFixed fixed.Point  `yaml:"slippage_fixed"`
	SlipOpen      bool         `yaml:"slip_open"`
	SlipOut       bool         `yaml:"slip_out"`
	ShortCash     *bool        `yaml:"short_cash"`
	InterestToPnL *bool        `yaml:"interest_to_pnl"`
	FundMode      bool         `yaml:"fund_mode"`
	FundStart     fixed.Point  `yaml:"fund_start_value"`
	Filler        *Filler      `yaml:"filler"`
	Commissions   []Commission `yaml:"commissions"`
}

type Filler struct {
	Type    string      `yaml:"type"`
	Size    fixed.Point `yaml:"size"`
	Perc    fixed.Point `yaml:"perc"`
	MinMove fixed.Point `yaml:"min_move"`
}

// Commission describes one scheme. An empty Name is the default scheme.
type Commission struct {
	Name         string       `yaml:"name"`
	Commission   fixed.Point  `yaml:"commission"`
	Type         string       `yaml:"type"`
	Margin       *fixed.Point `yaml:"margin"`
	AutoMargin   fixed.Point  `yaml:"auto_margin"`
	Mult         fixed.Point  `yaml:"mult"`
	StockLike    bool         `yaml:"stock_like"`
	PercAbs      bool         `yaml:"perc_abs"`
	Interest     fixed.Point  `yaml:"interest"`
	InterestLong bool         `yaml:"interest_long"`
	Leverage     fixed.Point  `yaml:"leverage"`
}

type Feed struct {
	Name      string        `yaml:"name"`
	Source    string        `yaml:"source"`
	Path      string        `yaml:"path"`
	Table     string        `yaml:"table"`
	Period    time.Duration `yaml:"period"`
	Resample  time.Duration `yaml:"resample"`
	From      time.Time     `yaml:"from"`
	To        time.Time     `yaml:"to"`
	Lookback  int           `yaml:"lookback"`
	Synthetic Synthetic     `yaml:"synthetic"`
}

type Synthetic struct {
	Start      time.Time   `yaml:"start"`
	StartPrice fixed.Point `yaml:"start_price"`
	Mu         fixed.Point `yaml:"mu"`
	Sigma      fixed.Point `yaml:"sigma"`
	DeltaT     fixed.Point `yaml:"delta_t"`
	Substeps   int         `yaml:"substeps"`
	Count      int         `yaml:"count"`
	Seed       int64       `yaml:"seed"`

	AvgVolume      fixed.Point `yaml:"avg_volume"`
	VolumeVariance float64     `yaml:"volume_variance"`
	PriceDigits    int         `yaml:"price_digits"`
	VolumeDigits   int         `yaml:"volume_digits"`
}

type History struct {
	Database string `yaml:"database"`
	Orders   string `yaml:"orders_table"`
	Notify   bool   `yaml:"notify"`
	Fund     string `yaml:"fund_table"`
}

type Strategy struct {
	Window    int         `yaml:"window"`
	Threshold fixed.Point `yaml:"threshold"`
	StopAtr   fixed.Point `yaml:"stop_atr"`
	Size      fixed.Point `yaml:"size"`
}

type Router struct {
	Capacity int `yaml:"capacity"`
}

type Audit struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

type Metrics struct {
	File string `yaml:"file"`
}

const (
	SourceBinary    = "binary"
	SourceDuckDB    = "duckdb"
	SourceSynthetic = "synthetic"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads, defaults and validates the configuration at path. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "dev"
	}
	if c.Broker.Cash.IsZero() {
		c.Broker.Cash = fixed.FromInt(10000, 0)
	}
	if c.Router.Capacity == 0 {
		c.Router.Capacity = 1024
	}
	if c.Strategy.Window == 0 {
		c.Strategy.Window = 20
	}
	if c.Strategy.Threshold.IsZero() {
		c.Strategy.Threshold = fixed.Two
	}
	if c.Strategy.StopAtr.IsZero() {
		c.Strategy.StopAtr = fixed.Two
	}
	if c.Strategy.Size.IsZero() {
		c.Strategy.Size = fixed.One
	}
	for i := range c.Feeds {
		f := &c.Feeds[i]
		if f.Period == 0 {
			f.Period = 24 * time.Hour
		}
		if f.Source == SourceSynthetic {
			s := &f.Synthetic
			if s.StartPrice.IsZero() {
				s.StartPrice = fixed.Hundred
			}
			if s.DeltaT.IsZero() {
				s.DeltaT = fixed.One.Div(fixed.FromInt(252, 0))
			}
			if s.Substeps == 0 {
				s.Substeps = 16
			}
			if s.AvgVolume.IsZero() {
				s.AvgVolume = fixed.FromInt(1000, 0)
			}
			if s.VolumeVariance == 0 {
				s.VolumeVariance = 0.5
			}
			if s.PriceDigits == 0 {
				s.PriceDigits = 2
			}
			if s.Start.IsZero() {
				s.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			}
		}
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch c.Logging.Format {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be dev or prod, got %q", c.Logging.Format))
	}

	if !c.Broker.Cash.IsPos() {
		errs = append(errs, fmt.Errorf("broker.cash must be positive"))
	}
	if c.Broker.SlippagePerc.IsNeg() || c.Broker.SlippageFixed.IsNeg() {
		errs = append(errs, fmt.Errorf("broker slippage must not be negative"))
	}
	if f := c.Broker.Filler; f != nil {
		switch f.Type {
		case "fixed_size", "bar_perc", "point_perc":
		default:
			errs = append(errs, fmt.Errorf("broker.filler.type %q is unknown", f.Type))
		}
	}
	names := make(map[string]bool)
	for i, cm := range c.Broker.Commissions {
		if names[cm.Name] {
			errs = append(errs, fmt.Errorf("broker.commissions[%d]: duplicate name %q", i, cm.Name))
		}
		names[cm.Name] = true
		if _, err := parseCommissionType(cm.Type); err != nil {
			errs = append(errs, fmt.Errorf("broker.commissions[%d]: %w", i, err))
		}
		if cm.Commission.IsNeg() {
			errs = append(errs, fmt.Errorf("broker.commissions[%d]: commission must not be negative", i))
		}
		if cm.Leverage.IsNeg() {
			errs = append(errs, fmt.Errorf("broker.commissions[%d]: leverage must be positive", i))
		}
	}

	if len(c.Feeds) == 0 {
		errs = append(errs, fmt.Errorf("at least one feed is required"))
	}
	feeds := make(map[string]bool)
	for i, f := range c.Feeds {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("feeds[%d]: name is required", i))
		}
		if feeds[f.Name] {
			errs = append(errs, fmt.Errorf("feeds[%d]: duplicate name %q", i, f.Name))
		}
		feeds[f.Name] = true

		switch f.Source {
		case SourceBinary:
			if f.Path == "" {
				errs = append(errs, fmt.Errorf("feeds[%d]: path is required for binary feeds", i))
			}
		case SourceDuckDB:
			if f.Path == "" || f.Table == "" {
				errs = append(errs, fmt.Errorf("feeds[%d]: path and table are required for duckdb feeds", i))
			}
		case SourceSynthetic:
			if f.Synthetic.Count <= 0 {
				errs = append(errs, fmt.Errorf("feeds[%d]: synthetic.count must be positive", i))
			}
			if f.Synthetic.VolumeVariance < 0 || f.Synthetic.PriceDigits < 0 || f.Synthetic.VolumeDigits < 0 {
				errs = append(errs, fmt.Errorf("feeds[%d]: synthetic volume and digit settings must not be negative", i))
			}
		default:
			errs = append(errs, fmt.Errorf("feeds[%d]: unknown source %q", i, f.Source))
		}
		if f.Source != SourceSynthetic && !f.To.IsZero() && f.To.Before(f.From) {
			errs = append(errs, fmt.Errorf("feeds[%d]: to is before from", i))
		}
		if f.Resample < 0 || (f.Resample > 0 && f.Resample < f.Period) {
			errs = append(errs, fmt.Errorf("feeds[%d]: resample must not be shorter than period", i))
		}
	}

	if (c.History.Orders != "" || c.History.Fund != "") && c.History.Database == "" {
		errs = append(errs, fmt.Errorf("history.database is required for history tables"))
	}

	if c.Strategy.Window < 2 {
		errs = append(errs, fmt.Errorf("strategy.window must be at least 2"))
	}
	if !c.Strategy.Size.IsPos() {
		errs = append(errs, fmt.Errorf("strategy.size must be positive"))
	}
	if c.Router.Capacity < 1 {
		errs = append(errs, fmt.Errorf("router.capacity must be positive"))
	}
	if _, err := c.MonitorFlags(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Builders
// ---------------------------------------------------------------------------

// BrokerOptions translates the broker section into broker options.
func (c *Config) BrokerOptions() []broker.Option {
	b := c.Broker
	options := []broker.Option{
		broker.WithCash(b.Cash),
		broker.WithCheatOnClose(b.CheatOnClose),
		broker.WithCheatOnOpen(b.CheatOnOpen),
		broker.WithSlipOpen(b.SlipOpen),
		broker.WithSlipOut(b.SlipOut),
	}
	if b.CheckSubmit != nil {
		options = append(options, broker.WithCheckSubmit(*b.CheckSubmit))
	}
	if b.ShortCash != nil {
		options = append(options, broker.WithShortCash(*b.ShortCash))
	}
	if b.InterestToPnL != nil {
		options = append(options, broker.WithInterestToPnL(*b.InterestToPnL))
	}
	if b.SlippagePerc.IsPos() {
		options = append(options, broker.WithSlippagePerc(b.SlippagePerc))
	}
	if b.SlippageFixed.IsPos() {
		options = append(options, broker.WithSlippageFixed(b.SlippageFixed))
	}
	if b.FundMode {
		start := b.FundStart
		if start.IsZero() {
			start = fixed.Hundred
		}
		options = append(options, broker.WithFundMode(true, start))
	}
	if f := b.Filler; f != nil {
		options = append(options, broker.WithFiller(f.build()))
	}
	for _, cm := range b.Commissions {
		options = append(options, broker.WithCommission(cm.Name, cm.Scheme()))
	}
	return options
}

func (f Filler) build() broker.Filler {
	switch f.Type {
	case "bar_perc":
		filler := broker.NewFixedBarPerc()
		if !f.Perc.IsZero() {
			filler.Perc = f.Perc
		}
		return filler
	case "point_perc":
		filler := broker.NewBarPointPerc()
		if !f.Perc.IsZero() {
			filler.Perc = f.Perc
		}
		if !f.MinMove.IsZero() {
			filler.MinMove = f.MinMove
		}
		return filler
	default:
		return broker.FixedSize{Size: f.Size}
	}
}

// Scheme builds the commission scheme. Options left unset keep the scheme
// defaults.
func (cm Commission) Scheme() *commission.Scheme {
	t, _ := parseCommissionType(cm.Type)
	options := []commission.Option{
		commission.WithCommission(cm.Commission),
		commission.WithType(t),
		commission.WithPercAbs(cm.PercAbs),
		commission.WithInterest(cm.Interest),
		commission.WithInterestLong(cm.InterestLong),
	}
	if t != commission.Default {
		options = append(options, commission.WithStockLike(cm.StockLike))
	}
	if cm.Margin != nil {
		options = append(options, commission.WithMargin(*cm.Margin))
	}
	if !cm.AutoMargin.IsZero() {
		options = append(options, commission.WithAutoMargin(cm.AutoMargin))
	}
	if !cm.Mult.IsZero() {
		options = append(options, commission.WithMult(cm.Mult))
	}
	if !cm.Leverage.IsZero() {
		options = append(options, commission.WithLeverage(cm.Leverage))
	}
	return commission.NewScheme(options...)
}

func parseCommissionType(s string) (commission.Type, error) {
	switch s {
	case "", "default":
		return commission.Default, nil
	case "percentage":
		return commission.Percentage, nil
	case "fixed":
		return commission.Fixed, nil
	default:
		return commission.Default, fmt.Errorf("commission type %q is unknown", s)
	}
}

func (c *Config) MonitorFlags() (middleware.MonitorFlags, error) {
	if len(c.Monitor) == 0 {
		return middleware.MonitorNone, nil
	}
	var flags middleware.MonitorFlags
	for _, name := range c.Monitor {
		switch name {
		case "all":
			flags |= middleware.MonitorAll
		case "bars":
			flags |= middleware.MonitorBars
		case "orders":
			flags |= middleware.MonitorOrders
		case "rejected":
			flags |= middleware.MonitorOrdersRejected
		case "account":
			flags |= middleware.MonitorAccount
		default:
			return middleware.MonitorNone, fmt.Errorf("monitor %q is unknown", name)
		}
	}
	return flags, nil
}
