package broker

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/barbroker/pkg/feed"
	"github.com/peter-kozarec/barbroker/pkg/order"
	"github.com/peter-kozarec/barbroker/pkg/utility/fixed"
)

// HistoryRow is a fill known in advance. Positive sizes buy. The instrument
// is looked up by Name, or by registration Index when Name is empty.
type HistoryRow struct {
	DateTime time.Time
	Size     fixed.Point
	Price    fixed.Point
	Name     string
	Index    int
}

// FundRow is the share value and net asset value of the fund at DateTime.
type FundRow struct {
	DateTime      time.Time
	ShareValue    fixed.Point
	NetAssetValue fixed.Point
}

type historyItem struct {
	dt    time.Time
	size  fixed.Point
	price fixed.Point
	data  feed.Data
}

type historyStream struct {
	items  []historyItem
	notify bool
}

// AddOrderHistory replays rows as Historical orders once their instrument
// reaches the row time. Zero sizes are skipped.
func (b *Broker) AddOrderHistory(rows []HistoryRow, notify bool) error {
	stream := historyStream{notify: notify}
	var last time.Time
	for i, row := range rows {
		if row.DateTime.IsZero() || !row.Price.IsPos() {
			return fmt.Errorf("order history row %d: %w", i, ErrInvalidHistoryRow)
		}
		if row.DateTime.Before(last) {
			return fmt.Errorf("order history row %d is out of order: %w", i, ErrInvalidHistoryRow)
		}
		last = row.DateTime

		d, err := b.resolve(row.Name, row.Index)
		if err != nil {
			return fmt.Errorf("order history row %d: %w", i, err)
		}
		if _, err := b.Commission(d); err != nil {
			return fmt.Errorf("order history row %d: %w", i, err)
		}
		if row.Size.IsZero() {
			continue
		}
		stream.items = append(stream.items, historyItem{dt: row.DateTime, size: row.Size, price: row.Price, data: d})
	}
	b.history = append(b.history, stream)
	return nil
}

func (b *Broker) resolve(name string, index int) (feed.Data, error) {
	if name != "" {
		for _, d := range b.datas {
			if d.Name() == name {
				return d, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownInstrument)
	}
	if index < 0 || index >= len(b.datas) {
		return nil, fmt.Errorf("index %d: %w", index, ErrUnknownInstrument)
	}
	return b.datas[index], nil
}

func (b *Broker) processOrderHistory() error {
	for i := range b.history {
		stream := &b.history[i]
		for len(stream.items) > 0 {
			item := stream.items[0]
			if item.dt.After(item.data.DateTime(0)) {
				break
			}
			stream.items = stream.items[1:]

			side := order.Buy
			if item.size.IsNeg() {
				side = order.Sell
			}
			if _, err := b.place(side, item.data, item.size.Abs(), false,
				order.WithExecType(order.Historical),
				order.WithPrice(item.price),
				order.WithHistNotify(stream.notify)); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetFundHistory drives value, cash and fund figures from recorded NAV rows.
// The first row seeds the starting cash.
func (b *Broker) SetFundHistory(rows []FundRow) error {
	if len(rows) == 0 {
		return ErrEmptyFundHistory
	}
	var last time.Time
	for i, row := range rows {
		if row.DateTime.IsZero() || !row.ShareValue.IsPos() {
			return fmt.Errorf("fund history row %d: %w", i, ErrInvalidHistoryRow)
		}
		if row.DateTime.Before(last) {
			return fmt.Errorf("fund history row %d is out of order: %w", i, ErrInvalidHistoryRow)
		}
		last = row.DateTime
	}

	b.fundHistory = append([]FundRow(nil), rows...)
	b.fundMode = true

	first := rows[0]
	b.startCash = first.NetAssetValue
	b.startingCash = first.NetAssetValue
	b.cash = first.NetAssetValue
	b.value = first.NetAssetValue
	b.fundValue = first.ShareValue
	b.fundShares = first.NetAssetValue.Div(first.ShareValue)
	return nil
}

// fundRow returns the latest row not after the session time, or the first
// row before the history starts.
func (b *Broker) fundRow() (FundRow, error) {
	d, err := b.clock()
	if err != nil {
		return FundRow{}, err
	}
	now := d.DateTime(0)
	row := b.fundHistory[0]
	for _, r := range b.fundHistory {
		if r.DateTime.After(now) {
			break
		}
		row = r
	}
	return row, nil
}
