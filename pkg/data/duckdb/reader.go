// Package duckdb loads bars and broker histories from a DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/peter-kozarec/barbroker/pkg/broker"
	"github.com/peter-kozarec/barbroker/pkg/common"
	"github.com/peter-kozarec/barbroker/pkg/utility"
)

const (
	readerComponentName = "data.duckdb.reader"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// DB exposes the connection, mainly for seeding data.
func (r *Reader) DB() *sql.DB {
	return r.db
}

// LoadBars streams the bars of table between from and to in time order.
// Prices are read as text so no precision is lost on the way to fixed.Point.
func (r *Reader) LoadBars(ctx context.Context, table, symbol string, period time.Duration, from, to time.Time, handler func(bar common.Bar) error) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	query := fmt.Sprintf(`SELECT ts,
		CAST(open AS VARCHAR), CAST(high AS VARCHAR), CAST(low AS VARCHAR),
		CAST(close AS VARCHAR), CAST(volume AS VARCHAR)
		FROM %s WHERE ts BETWEEN ? AND ? ORDER BY ts`, table)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var bar common.Bar
		if err := rows.Scan(&bar.TimeStamp, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		bar.TimeStamp = bar.TimeStamp.UTC()
		bar.Source = readerComponentName
		bar.Symbol = symbol
		bar.Period = period
		bar.ExecutionId = utility.GetExecutionID()
		bar.TraceID = utility.CreateTraceID()

		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return nil
}

// LoadOrderHistory reads rows of (ts, size, price, name) for
// broker.AddOrderHistory.
func (r *Reader) LoadOrderHistory(ctx context.Context, table string) ([]broker.HistoryRow, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	query := fmt.Sprintf(`SELECT ts, CAST(size AS VARCHAR), CAST(price AS VARCHAR), name
		FROM %s ORDER BY ts`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []broker.HistoryRow
	for rows.Next() {
		var row broker.HistoryRow
		if err := rows.Scan(&row.DateTime, &row.Size, &row.Price, &row.Name); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		row.DateTime = row.DateTime.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return out, nil
}

// LoadFundHistory reads rows of (ts, share_value, net_asset_value) for
// broker.SetFundHistory.
func (r *Reader) LoadFundHistory(ctx context.Context, table string) ([]broker.FundRow, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	query := fmt.Sprintf(`SELECT ts, CAST(share_value AS VARCHAR), CAST(net_asset_value AS VARCHAR)
		FROM %s ORDER BY ts`, table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error preparing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []broker.FundRow
	for rows.Next() {
		var row broker.FundRow
		if err := rows.Scan(&row.DateTime, &row.ShareValue, &row.NetAssetValue); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		row.DateTime = row.DateTime.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return out, nil
}
