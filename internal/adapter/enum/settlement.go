package enum

import "strings"

// Settlement is the settlement timing class of an asset.
// Repos settle on a date and options have no settlement, neither is represented here.
type Settlement uint8

const (
	_settlement_beg Settlement = iota
	SettlementSpot
	Settlement24hs
	Settlement48hs
	_settlement_end
)

var (
	_settlementNames = [...]string{
		SettlementSpot: "spot",
		Settlement24hs: "24hs",
		Settlement48hs: "48hs",
	}

	_settlementCodes = [...]string{
		SettlementSpot: "1",
		Settlement24hs: "2",
		Settlement48hs: "3",
	}
)

func (s Settlement) IsAvailable() bool {
	return s > _settlement_beg && s < _settlement_end
}

func (s Settlement) Name() string {
	if !s.IsAvailable() {
		return ""
	}
	return _settlementNames[s]
}

func (s Settlement) Code() string {
	if !s.IsAvailable() {
		return ""
	}
	return _settlementCodes[s]
}

func (s Settlement) String() string {
	return s.Name()
}

// Settlements lists every available settlement, spot first.
func Settlements() []Settlement {
	return []Settlement{SettlementSpot, Settlement24hs, Settlement48hs}
}

// ParseSettlementName matches spot, 24hs or 48hs, case-insensitive.
func ParseSettlementName(name string) (Settlement, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s := _settlement_beg + 1; s < _settlement_end; s++ {
		if _settlementNames[s] == name {
			return s, true
		}
	}
	return 0, false
}

// ParseSettlementCode matches the wire codes 1, 2 or 3.
func ParseSettlementCode(code string) (Settlement, bool) {
	code = strings.TrimSpace(code)
	for s := _settlement_beg + 1; s < _settlement_end; s++ {
		if _settlementCodes[s] == code {
			return s, true
		}
	}
	return 0, false
}
