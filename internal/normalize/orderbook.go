package normalize

import (
	"github.com/shopspring/decimal"

	"homebroker/internal/adapter"
)

// OrderBookDepth is the number of levels every order book has.
const OrderBookDepth = 5

// OrderBookKey indexes order book rows.
type OrderBookKey struct {
	Symbol     string
	Settlement string
	Position   int
}

// OrderBookRow is one depth level. Levels the feed did not send have invalid
// price, size and order count.
type OrderBookRow struct {
	Symbol         string
	Settlement     string
	Position       int
	BidOffersCount decimal.NullDecimal
	BidSize        decimal.NullDecimal
	Bid            decimal.NullDecimal
	Ask            decimal.NullDecimal
	AskSize        decimal.NullDecimal
	AskOffersCount decimal.NullDecimal
}

func (r OrderBookRow) Key() OrderBookKey {
	return OrderBookKey{Symbol: r.Symbol, Settlement: r.Settlement, Position: r.Position}
}

type OrderBookTable = Table[OrderBookKey, OrderBookRow]

var (
	orderBookIndex   = []string{"symbol", "settlement", "position"}
	orderBookColumns = columns(orderBookIndex, []string{
		"bid_offers_count", "bid_size", "bid", "ask", "ask_size", "ask_offers_count",
	})
)

// NewOrderBookTable returns the canonical empty order book table.
func NewOrderBookTable() *OrderBookTable {
	return newTable[OrderBookKey, OrderBookRow]("order_book", orderBookIndex, orderBookColumns)
}

// OrderBook builds the five level book of one instrument. The skeleton is
// built first and each side is left joined on position, so missing levels
// keep their row with missing values.
func OrderBook(symbol, settlementCode string, buySide, sellSide []adapter.RawRecord) *OrderBookTable {
	settlement, err := adapter.SettlementNameFromResponse(settlementCode, symbol)
	if err != nil {
		settlement = settlementCode
	}

	var levels [OrderBookDepth]OrderBookRow
	for i := range levels {
		levels[i] = OrderBookRow{Symbol: symbol, Settlement: settlement, Position: i + 1}
	}
	for _, rec := range buySide {
		if i, ok := level(rec); ok {
			levels[i].BidSize = Number(rec.Value(adapter.FieldBuyQuantity))
			levels[i].Bid = Number(rec.Value(adapter.FieldBuyPrice))
			levels[i].BidOffersCount = Number(rec.Value(adapter.FieldNumberOfOrders))
		}
	}
	for _, rec := range sellSide {
		if i, ok := level(rec); ok {
			levels[i].AskSize = Number(rec.Value(adapter.FieldSellQuantity))
			levels[i].Ask = Number(rec.Value(adapter.FieldSellPrice))
			levels[i].AskOffersCount = Number(rec.Value(adapter.FieldNumberOfOrders))
		}
	}

	table := NewOrderBookTable()
	for _, row := range levels {
		table.Put(row)
	}
	return table
}

// OrderBookOf builds the book from a record embedding a depth box.
func OrderBookOf(symbol, settlementCode string, rec adapter.RawRecord) *OrderBookTable {
	buy, sell := Depth(rec)
	return OrderBook(symbol, settlementCode, buy, sell)
}

// OrderBooks folds one five level book per record into a single table.
func OrderBooks(records []adapter.RawRecord) (*OrderBookTable, error) {
	table := NewOrderBookTable()
	for _, rec := range records {
		symbol, err := rec.Symbol()
		if err != nil {
			return NewOrderBookTable(), err
		}
		table.Append(OrderBookOf(symbol, rec.String(adapter.FieldTerm), rec))
	}
	return table, nil
}

// Depth extracts the buy and sell depth arrays of a record, nil when absent.
func Depth(rec adapter.RawRecord) (buySide, sellSide []adapter.RawRecord) {
	box := rec.Record(adapter.FieldStockDepthBox).Record(adapter.FieldPriceDepthBox)
	if box == nil {
		return nil, nil
	}
	return box.Records(adapter.FieldBuySide), box.Records(adapter.FieldSellSide)
}

func level(rec adapter.RawRecord) (int, bool) {
	pos, ok := integer(rec.Value(adapter.FieldPosition))
	if !ok || pos < 1 || pos > OrderBookDepth {
		return 0, false
	}
	return pos - 1, true
}
