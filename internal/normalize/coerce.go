package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homebroker/internal/adapter"
)

// Location is the market time zone trade dates and hours are read in.
var Location = time.FixedZone("ART", -3*60*60)

const dateLayout = "20060102"

// missing is the literal the feed uses for an absent number.
const missing = "-"

// Number coerces a feed value into a decimal. Text values use the local format:
// dots separate thousands and the comma is the decimal mark. Empty text, the
// literal "-" and unparseable values are missing, never zero.
func Number(value any) decimal.NullDecimal {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}
	case json.Number:
		return parseDecimal(v.String())
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(v)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" || s == missing {
			return decimal.NullDecimal{}
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		return parseDecimal(s)
	default:
		return decimal.NullDecimal{}
	}
}

func parseDecimal(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Date parses a YYYYMMDD value. Invalid values yield the zero time.
func Date(value any) time.Time {
	s := strings.TrimSpace(adapter.Text(value))
	if len(s) < len(dateLayout) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, s[:len(dateLayout)], Location)
	if err != nil {
		return time.Time{}
	}
	return t
}

// clock parses a time-of-day offset such as 16:59:59 or 16:59:59.250.
func clock(value any) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(adapter.Text(value)), ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || sec < 0 || sec >= 60 {
		return 0, false
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second)), true
}

// tradeDatetime combines the trade date with the hour offset.
// A missing date or hour makes the whole timestamp missing.
func tradeDatetime(rec adapter.RawRecord) time.Time {
	day := Date(rec.Value(adapter.FieldTradeDate))
	if day.IsZero() {
		return time.Time{}
	}
	offset, ok := clock(rec.Value(adapter.FieldHour))
	if !ok {
		return time.Time{}
	}
	return day.Add(offset)
}

func integer(value any) (int, bool) {
	n := Number(value)
	if !n.Valid || !n.Decimal.Equal(n.Decimal.Truncate(0)) {
		return 0, false
	}
	return int(n.Decimal.IntPart()), true
}
