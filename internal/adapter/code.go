package adapter

import (
	"strings"
	"time"

	"homebroker/internal/adapter/enum"
	"homebroker/pkg/exception"
)

const repoSettlementLayout = "20060102"

var repoCurrencies = map[string]struct{}{
	"DOLAR": {},
	"PESOS": {},
}

// optionSymbolLen is the length of every option ticker on the feed.
const optionSymbolLen = 10

// ClassifySymbol decides once how a symbol's settlement is read and written.
func ClassifySymbol(symbol string) enum.RequestKind {
	if len(symbol) == optionSymbolLen {
		return enum.RequestOption
	}
	if _, ok := repoCurrencies[symbol]; ok {
		return enum.RequestRepo
	}
	return enum.RequestAsset
}

// BoardCodeForRequest maps a board name (bluechips, general_board, ...) to its panel code.
func BoardCodeForRequest(name string) (string, error) {
	board, ok := enum.ParseBoardName(name)
	if !ok {
		return "", exception.ErrInvalidBoard
	}
	return board.Code(), nil
}

// BoardNameFromWireCode maps a panel code back to its board name.
// Unknown codes yield an empty name.
func BoardNameFromWireCode(code string) string {
	board, ok := enum.ParseBoardCode(code)
	if !ok {
		return ""
	}
	return board.Name()
}

// SettlementCodeForRequest validates settlement against the kind of symbol and returns
// the wire code. Options take no settlement, repos take a YYYYMMDD date passed through
// untouched and assets take spot, 24hs or 48hs mapped to 1, 2 or 3.
func SettlementCodeForRequest(settlement, symbol string) (string, error) {
	switch ClassifySymbol(symbol) {
	case enum.RequestOption:
		if settlement != "" {
			return "", exception.ErrInvalidSettlement
		}
		return "", nil
	case enum.RequestRepo:
		if _, err := time.Parse(repoSettlementLayout, settlement); err != nil {
			return "", exception.ErrInvalidSettlement
		}
		return settlement, nil
	default:
		s, ok := enum.ParseSettlementName(settlement)
		if !ok {
			return "", exception.ErrInvalidSettlement
		}
		return s.Code(), nil
	}
}

// SettlementNameFromResponse is the inverse of SettlementCodeForRequest.
// Option and repo codes pass through, asset codes 1, 2 and 3 map to spot, 24hs and 48hs.
func SettlementNameFromResponse(code, symbol string) (string, error) {
	switch ClassifySymbol(symbol) {
	case enum.RequestOption, enum.RequestRepo:
		return code, nil
	default:
		s, ok := enum.ParseSettlementCode(code)
		if !ok {
			return "", exception.ErrInvalidSettlement
		}
		return s.Name(), nil
	}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
