package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/examples/strategy"
	"github.com/peter-kozarec/barbroker/internal/config"
	"github.com/peter-kozarec/barbroker/internal/dbg"
	"github.com/peter-kozarec/barbroker/pkg/broker"
	"github.com/peter-kozarec/barbroker/pkg/bus"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/data/duckdb"
	"github.com/peter-kozarec/barbroker/pkg/middleware"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/simulation"
	"github.com/peter-kozarec/barbroker/pkg/utility"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "run a backtest described by a configuration file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "path to the yaml run configuration",
			Required: true,
		},
	},
	Action: run,
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	logger, err := dbg.NewLogger(cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(fmt.Sprintf("backtest %s", Version),
		zap.Stringer("execution_id", utility.NewExecutionID()))
	defer logger.Info("done")

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b := broker.New(append(cfg.BrokerOptions(), broker.WithLogger(logger))...)
	router := bus.NewRouter(logger, cfg.Router.Capacity)
	executor := simulation.NewExecutor(logger, b, router)

	var strategies []*strategy.MeanReversion
	for _, f := range cfg.Feeds {
		source, closer, err := openFeed(ctx, f)
		if err != nil {
			return err
		}
		defer closer()

		series := newSeries(f)
		executor.AddFeed(series, source)
		strategies = append(strategies, strategy.NewMeanReversion(logger, b, series, strategy.Config{
			Window:    cfg.Strategy.Window,
			Threshold: cfg.Strategy.Threshold,
			StopAtr:   cfg.Strategy.StopAtr,
			Size:      cfg.Strategy.Size,
		}))
	}

	if err := loadHistory(ctx, b, cfg.History); err != nil {
		return err
	}

	flags, err := cfg.MonitorFlags()
	if err != nil {
		return err
	}
	registry := prometheus.NewRegistry()
	telemetry, err := middleware.NewTelemetry(registry)
	if err != nil {
		return err
	}
	monitor := middleware.NewMonitor(logger, flags)
	performance := middleware.NewPerformance(logger)
	audit := simulation.NewAudit(cfg.Audit.SnapshotInterval)

	var (
		onBar   []bus.EventHandler[common.Bar]
		onOrder = []bus.EventHandler[order.Notification]{audit.OnOrder}
	)
	for _, s := range strategies {
		onBar = append(onBar, s.OnBar)
		onOrder = append(onOrder, s.OnOrder)
	}

	router.OnBar = middleware.Chain(performance.WithBar, telemetry.WithBar, monitor.WithBar)(bus.MergeHandlers(onBar...))
	router.OnOrder = middleware.Chain(performance.WithOrder, telemetry.WithOrder, monitor.WithOrder)(bus.MergeHandlers(onOrder...))
	router.OnAccount = middleware.Chain(performance.WithAccount, telemetry.WithAccount, monitor.WithAccount)(audit.OnAccount)

	runErr := executor.Run(ctx)

	router.Statistics().Log(logger)
	performance.PrintStatistics()

	if cfg.Metrics.File != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.File, registry); err != nil {
			logger.Warn("unable to write metrics", zap.String("file", cfg.Metrics.File), zap.Error(err))
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("simulation failed: %w", runErr)
	}

	report, err := audit.GenerateReport()
	if err != nil {
		logger.Warn("unable to generate report", zap.Error(err))
		return nil
	}
	report.Print(logger)
	return nil
}

func loadHistory(ctx context.Context, b *broker.Broker, h config.History) error {
	if h.Database == "" {
		return nil
	}

	db := duckdb.NewReader(h.Database)
	if err := db.Connect(); err != nil {
		return err
	}
	defer db.Close()

	if h.Orders != "" {
		rows, err := db.LoadOrderHistory(ctx, h.Orders)
		if err != nil {
			return err
		}
		if err := b.AddOrderHistory(rows, h.Notify); err != nil {
			return fmt.Errorf("order history: %w", err)
		}
	}
	if h.Fund != "" {
		rows, err := db.LoadFundHistory(ctx, h.Fund)
		if err != nil {
			return err
		}
		if err := b.SetFundHistory(rows); err != nil {
			return fmt.Errorf("fund history: %w", err)
		}
	}
	return nil
}
