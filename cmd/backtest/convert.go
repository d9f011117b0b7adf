package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/peter-kozarec/barbroker/internal/dbg"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/data/duckdb"
	"github.com/peter-kozarec/barbroker/pkg/feed/historical"
)

var convertCommand = &cli.Command{
	Name:  "convert",
	Usage: "export bars from a duckdb table into a binary bar file",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "db", Usage: "duckdb database file", Required: true},
		&cli.StringFlag{Name: "table", Usage: "table holding ts, open, high, low, close, volume", Required: true},
		&cli.StringFlag{Name: "out", Usage: "binary bar file to write", Required: true},
		&cli.TimestampFlag{Name: "from", Layout: time.DateOnly, Usage: "first day to export"},
		&cli.TimestampFlag{Name: "to", Layout: time.DateOnly, Usage: "last day to export"},
		&cli.StringFlag{Name: "log-level", Value: "info"},
	},
	Action: convert,
}

func convert(c *cli.Context) error {
	logger, err := dbg.NewLogger("dev", c.String("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	from := time.Unix(0, 0).UTC()
	if t := c.Timestamp("from"); t != nil {
		from = *t
	}
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if t := c.Timestamp("to"); t != nil {
		to = *t
	}

	db := duckdb.NewReader(c.String("db"))
	if err := db.Connect(); err != nil {
		return err
	}
	defer db.Close()

	var bars []common.Bar
	err = db.LoadBars(c.Context, c.String("table"), c.String("table"), 0, from, to, func(bar common.Bar) error {
		bars = append(bars, bar)
		return nil
	})
	if err != nil {
		return err
	}

	if err := historical.WriteBars(c.String("out"), bars); err != nil {
		return fmt.Errorf("unable to write %s: %w", c.String("out"), err)
	}

	logger.Info("bars exported",
		zap.String("table", c.String("table")),
		zap.String("out", c.String("out")),
		zap.Int("count", len(bars)))
	return nil
}
