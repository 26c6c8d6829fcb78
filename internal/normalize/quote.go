package normalize

import (
	"time"

	"github.com/shopspring/decimal"

	"homebroker/internal/adapter"
	"homebroker/internal/adapter/enum"
)

// InstrumentKey indexes tables by symbol and settlement.
type InstrumentKey struct {
	Symbol     string
	Settlement string
}

// Quote holds the market columns shared by portfolio, securities and options rows.
type Quote struct {
	BidSize       decimal.NullDecimal
	Bid           decimal.NullDecimal
	Ask           decimal.NullDecimal
	AskSize       decimal.NullDecimal
	Last          decimal.NullDecimal
	Change        decimal.NullDecimal
	Open          decimal.NullDecimal
	High          decimal.NullDecimal
	Low           decimal.NullDecimal
	PreviousClose decimal.NullDecimal
	Turnover      decimal.NullDecimal
	Volume        decimal.NullDecimal
	Operations    decimal.NullDecimal
	// Datetime is zero when the trade date or hour is missing.
	Datetime time.Time
}

// OptionInfo holds the option-only columns. Expiration is zero and Strike is
// invalid when the row is not an option.
type OptionInfo struct {
	Expiration      time.Time
	Strike          decimal.NullDecimal
	Kind            enum.OptionKind
	UnderlyingAsset string
}

var quoteColumns = []string{
	"bid_size", "bid", "ask", "ask_size", "last", "change", "open", "high", "low",
	"previous_close", "turnover", "volume", "operations", "datetime",
}

var optionColumns = []string{"expiration", "strike", "kind", "underlying_asset"}

func quoteOf(rec adapter.RawRecord) Quote {
	return Quote{
		BidSize:       Number(rec.Value(adapter.FieldBuyQuantity)),
		Bid:           Number(rec.Value(adapter.FieldBuyPrice)),
		Ask:           Number(rec.Value(adapter.FieldSellPrice)),
		AskSize:       Number(rec.Value(adapter.FieldSellQuantity)),
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
	}
}

// optionInfoOf reads the option columns. A strike of exactly zero is the feed's
// way to say the row is not an option, so every option column is blanked.
func optionInfoOf(rec adapter.RawRecord) OptionInfo {
	strike := Number(rec.Value(adapter.FieldStrikePrice))
	if strike.Valid && strike.Decimal.IsZero() {
		return OptionInfo{}
	}
	return OptionInfo{
		Expiration:      Date(rec.Value(adapter.FieldMaturityDate)),
		Strike:          strike,
		Kind:            enum.ParseOptionCode(rec.String(adapter.FieldPutOrCall)),
		UnderlyingAsset: rec.String(adapter.FieldIssuer),
	}
}

// settlementOf translates the record settlement code. Codes the translator
// rejects become an empty settlement.
func settlementOf(rec adapter.RawRecord, symbol string) string {
	name, err := adapter.SettlementNameFromResponse(rec.String(adapter.FieldTerm), symbol)
	if err != nil {
		return ""
	}
	return name
}

func columns(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
