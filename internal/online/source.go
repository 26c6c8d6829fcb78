package online

import (
	"context"

	"homebroker/internal/normalize"
)

// SnapshotSource serves the one-shot reads that seed a subscription.
// Board and settlement arguments are wire codes.
type SnapshotSource interface {
	PersonalPortfolio(ctx context.Context) (*normalize.PortfolioTable, *normalize.OrderBookTable, error)
	Securities(ctx context.Context, boardCode, settlementCode string) (*normalize.SecuritiesTable, error)
	Options(ctx context.Context) (*normalize.OptionsTable, error)
	Repos(ctx context.Context) (*normalize.ReposTable, error)
	OrderBook(ctx context.Context, symbol, settlementCode string) (*normalize.OrderBookTable, error)
}

// Hub is the connection the subscriptions are joined on. *hub.Conn satisfies it.
type Hub interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	JoinGroup(ctx context.Context, name string) error
	QuitGroup(ctx context.Context, name string) error
}
