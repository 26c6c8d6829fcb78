package normalize

import (
	"time"

	"github.com/shopspring/decimal"

	"homebroker/internal/adapter"
)

// RepoRow is one repo quote. Settlement is the maturity date as sent by the feed.
type RepoRow struct {
	Symbol        string
	Days          decimal.NullDecimal
	Settlement    string
	BidAmount     decimal.NullDecimal
	BidRate       decimal.NullDecimal
	AskRate       decimal.NullDecimal
	AskAmount     decimal.NullDecimal
	Last          decimal.NullDecimal
	Change        decimal.NullDecimal
	Open          decimal.NullDecimal
	High          decimal.NullDecimal
	Low           decimal.NullDecimal
	PreviousClose decimal.NullDecimal
	Turnover      decimal.NullDecimal
	Volume        decimal.NullDecimal
	Operations    decimal.NullDecimal
	Datetime      time.Time
}

func (r RepoRow) Key() InstrumentKey {
	return InstrumentKey{Symbol: r.Symbol, Settlement: r.Settlement}
}

type ReposTable = Table[InstrumentKey, RepoRow]

var (
	reposIndex   = []string{"symbol", "settlement"}
	reposColumns = []string{
		"symbol", "days", "settlement", "bid_amount", "bid_rate", "ask_rate", "ask_amount",
		"last", "change", "open", "high", "low", "previous_close", "turnover", "volume",
		"operations", "datetime",
	}
)

// NewReposTable returns the canonical empty repos table.
func NewReposTable() *ReposTable {
	return newTable[InstrumentKey, RepoRow]("repos", reposIndex, reposColumns)
}

// Repos normalizes repo records. Bid and ask read as amount and rate.
func Repos(records []adapter.RawRecord) (*ReposTable, error) {
	table := NewReposTable()
	for _, rec := range records {
		symbol, err := rec.Symbol()
		if err != nil {
			return NewReposTable(), err
		}
		table.Put(RepoRow{
			Symbol:        symbol,
			Days:          Number(rec.Value(adapter.FieldDays)),
			Settlement:    rec.String(adapter.FieldTerm),
			BidAmount:     Number(rec.Value(adapter.FieldBuyQuantity)),
			BidRate:       Number(rec.Value(adapter.FieldBuyPrice)),
			AskRate:       Number(rec.Value(adapter.FieldSellPrice)),
			AskAmount:     Number(rec.Value(adapter.FieldSellQuantity)),
			Last:          Number(rec.Value(adapter.FieldLastPrice)),
			Change:        Number(rec.Value(adapter.FieldVariationRate)),
			Open:          Number(rec.Value(adapter.FieldStartPrice)),
			High:          Number(rec.Value(adapter.FieldMaxPrice)),
			Low:           Number(rec.Value(adapter.FieldMinPrice)),
			PreviousClose: Number(rec.Value(adapter.FieldPreviousClose)),
			Turnover:      Number(rec.Value(adapter.FieldTotalAmountTraded)),
			Volume:        Number(rec.Value(adapter.FieldTotalQuantityTraded)),
			Operations:    Number(rec.Value(adapter.FieldTrades)),
			Datetime:      tradeDatetime(rec),
		})
	}
	return table, nil
}
