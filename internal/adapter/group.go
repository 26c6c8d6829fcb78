package adapter

// Fixed hub group names.
const (
	GroupOptions = "opciones-"
	GroupRepos   = "cauciones-"
)

// SecurityGroup is the hub group of a board and settlement, both in wire codes.
func SecurityGroup(boardCode, settlementCode string) string {
	return boardCode + "-" + settlementCode
}

// OrderBookGroup is the hub group of a symbol level 2 book.
func OrderBookGroup(symbol, settlementCode string) string {
	return symbol + "*" + settlementCode + "*cj"
}

// PortfolioGroup is the hub group of one personal portfolio position.
func PortfolioGroup(symbol, settlementCode string) string {
	return symbol + "*" + settlementCode + "*fv"
}
