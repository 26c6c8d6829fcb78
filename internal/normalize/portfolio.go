package normalize

import "homebroker/internal/adapter"

// PortfolioRow is one personal portfolio position.
type PortfolioRow struct {
	Symbol     string
	Settlement string
	Quote
	OptionInfo
}

func (r PortfolioRow) Key() InstrumentKey {
	return InstrumentKey{Symbol: r.Symbol, Settlement: r.Settlement}
}

type PortfolioTable = Table[InstrumentKey, PortfolioRow]

var (
	portfolioIndex   = []string{"symbol", "settlement"}
	portfolioColumns = columns(portfolioIndex, quoteColumns, optionColumns)
)

// NewPortfolioTable returns the canonical empty personal portfolio table.
func NewPortfolioTable() *PortfolioTable {
	return newTable[InstrumentKey, PortfolioRow]("personal_portfolio", portfolioIndex, portfolioColumns)
}

// PersonalPortfolio normalizes portfolio records. Rows that are not options keep
// their market columns and get blank option columns.
func PersonalPortfolio(records []adapter.RawRecord) (*PortfolioTable, error) {
	table := NewPortfolioTable()
	for _, rec := range records {
		symbol, err := rec.Symbol()
		if err != nil {
			return NewPortfolioTable(), err
		}
		table.Put(PortfolioRow{
			Symbol:     symbol,
			Settlement: settlementOf(rec, symbol),
			Quote:      quoteOf(rec),
			OptionInfo: optionInfoOf(rec),
		})
	}
	return table, nil
}
