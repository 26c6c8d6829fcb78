package adapter

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"homebroker/pkg/exception"
)

// RawRecord is one record as received from the hub or the snapshot endpoints,
// keyed by wire field names.
type RawRecord map[string]any

// Wire field names.
const (
	FieldSymbol              = "Symbol"
	FieldTerm                = "Term"
	FieldGroup               = "Group"
	FieldPanel               = "Panel"
	FieldBuyQuantity         = "BuyQuantity"
	FieldBuyPrice            = "BuyPrice"
	FieldSellPrice           = "SellPrice"
	FieldSellQuantity        = "SellQuantity"
	FieldLastPrice           = "LastPrice"
	FieldVariationRate       = "VariationRate"
	FieldStartPrice          = "StartPrice"
	FieldMaxPrice            = "MaxPrice"
	FieldMinPrice            = "MinPrice"
	FieldPreviousClose       = "PreviousClose"
	FieldTotalAmountTraded   = "TotalAmountTraded"
	FieldTotalQuantityTraded = "TotalQuantityTraded"
	FieldTrades              = "Trades"
	FieldTradeDate           = "TradeDate"
	FieldHour                = "Hour"
	FieldMaturityDate        = "MaturityDate"
	FieldStrikePrice         = "StrikePrice"
	FieldPutOrCall           = "PutOrCall"
	FieldIssuer              = "Issuer"
	FieldDays                = "CantDias"
	FieldStockDepthBox       = "StockDepthBox"
	FieldPriceDepthBox       = "PriceDepthBox"
	FieldBuySide             = "BuySide"
	FieldSellSide            = "SellSide"
	FieldPosition            = "Pos"
	FieldNumberOfOrders      = "NumberOfOrders"
)

var _recordAPI = sonic.Config{UseNumber: true}.Froze()

// DecodeRecords decodes a hub argument or a REST result holding either one record,
// a list of records or null.
func DecodeRecords(data []byte) ([]RawRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var value any
	if err := _recordAPI.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, "unmarshal records")
	}
	return RecordsOf(value)
}

// RecordsOf converts an already decoded value into records.
func RecordsOf(value any) ([]RawRecord, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
		return []RawRecord{RawRecord(v)}, nil
	case RawRecord:
		if len(v) == 0 {
			return nil, nil
		}
		return []RawRecord{v}, nil
	case []any:
		records := make([]RawRecord, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, exception.ErrMalformedRecord
			}
			records = append(records, RawRecord(m))
		}
		return records, nil
	default:
		return nil, exception.ErrMalformedRecord
	}
}

// Value returns the raw value stored under key.
func (r RawRecord) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// String renders the value under key as text. Missing values render empty.
func (r RawRecord) String(key string) string {
	return Text(r.Value(key))
}

// Record returns the nested record under key, nil when absent or not an object.
func (r RawRecord) Record(key string) RawRecord {
	switch v := r.Value(key).(type) {
	case map[string]any:
		return RawRecord(v)
	case RawRecord:
		return v
	default:
		return nil
	}
}

// Records returns the nested record list under key, skipping non-object items.
func (r RawRecord) Records(key string) []RawRecord {
	items, ok := r.Value(key).([]any)
	if !ok {
		return nil
	}
	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, RawRecord(m))
		}
	}
	return records
}

// Symbol returns the record symbol or ErrMalformedRecord when it is missing.
func (r RawRecord) Symbol() (string, error) {
	symbol := r.String(FieldSymbol)
	if symbol == "" {
		return "", exception.ErrMalformedRecord
	}
	return symbol, nil
}

// Key is the per-instrument identity used to coalesce pushes: symbol and settlement code.
func (r RawRecord) Key() (string, error) {
	symbol, err := r.Symbol()
	if err != nil {
		return "", err
	}
	return symbol + "-" + r.String(FieldTerm), nil
}

// Text renders a decoded JSON scalar as text.
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
