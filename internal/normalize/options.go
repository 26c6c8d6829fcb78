package normalize

import "homebroker/internal/adapter"

// OptionRow is one option quote.
type OptionRow struct {
	Symbol string
	Quote
	OptionInfo
}

func (r OptionRow) Key() string {
	return r.Symbol
}

type OptionsTable = Table[string, OptionRow]

var (
	optionsIndex   = []string{"symbol"}
	optionsColumns = columns(optionsIndex, quoteColumns, optionColumns)
)

// NewOptionsTable returns the canonical empty options table.
func NewOptionsTable() *OptionsTable {
	return newTable[string, OptionRow]("options", optionsIndex, optionsColumns)
}

// Options normalizes option records. Rows without a positive strike are not
// options and are dropped.
func Options(records []adapter.RawRecord) (*OptionsTable, error) {
	table := NewOptionsTable()
	for _, rec := range records {
		symbol, err := rec.Symbol()
		if err != nil {
			return NewOptionsTable(), err
		}
		info := optionInfoOf(rec)
		if !info.Strike.Valid || !info.Strike.Decimal.IsPositive() {
			continue
		}
		table.Put(OptionRow{
			Symbol:     symbol,
			Quote:      quoteOf(rec),
			OptionInfo: info,
		})
	}
	return table, nil
}
