package normalize

import "homebroker/internal/adapter"

// SecurityRow is one security quote of a board.
type SecurityRow struct {
	Symbol     string
	Settlement string
	Quote
	// Group is the board name, empty when the feed sends a panel the translator does not know.
	Group string
}

func (r SecurityRow) Key() InstrumentKey {
	return InstrumentKey{Symbol: r.Symbol, Settlement: r.Settlement}
}

type SecuritiesTable = Table[InstrumentKey, SecurityRow]

var (
	securitiesIndex   = []string{"symbol", "settlement"}
	securitiesColumns = columns(securitiesIndex, quoteColumns, []string{"group"})
)

// NewSecuritiesTable returns the canonical empty securities table.
func NewSecuritiesTable() *SecuritiesTable {
	return newTable[InstrumentKey, SecurityRow]("securities", securitiesIndex, securitiesColumns)
}

// Securities normalizes board records.
func Securities(records []adapter.RawRecord) (*SecuritiesTable, error) {
	table := NewSecuritiesTable()
	for _, rec := range records {
		symbol, err := rec.Symbol()
		if err != nil {
			return NewSecuritiesTable(), err
		}
		table.Put(SecurityRow{
			Symbol:     symbol,
			Settlement: settlementOf(rec, symbol),
			Quote:      quoteOf(rec),
			Group:      adapter.BoardNameFromWireCode(rec.String(adapter.FieldPanel)),
		})
	}
	return table, nil
}
