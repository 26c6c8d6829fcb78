package online

import (
	"context"

	"github.com/yanun0323/logs"

	"homebroker/internal/adapter"
	"homebroker/internal/hub"
	"homebroker/internal/ingest"
	"homebroker/internal/snapshot"
	"homebroker/pkg/exception"
)

// Client is the subscription manager. Each subscribe call seeds the stream
// with a snapshot delivered straight to its callback and then joins the hub
// group that carries the updates.
//
// The public methods are not safe for concurrent use; callers serialize them.
type Client struct {
	hub       Hub
	source    SnapshotSource
	callbacks *ingest.Callbacks

	portfolioGroups []string
}

// New wires a client over an existing hub and snapshot source.
func New(h Hub, source SnapshotSource, callbacks *ingest.Callbacks) *Client {
	if callbacks == nil {
		callbacks = &ingest.Callbacks{}
	}
	return &Client{
		hub:       h,
		source:    source,
		callbacks: callbacks,
	}
}

// Config groups the settings of the default hub and snapshot implementations.
type Config struct {
	Hub      hub.Config
	Snapshot snapshot.Config
}

// NewWithSession builds the SignalR hub connection and the REST snapshot source for session.
func NewWithSession(session *adapter.Session, callbacks *ingest.Callbacks, cfg Config) *Client {
	if callbacks == nil {
		callbacks = &ingest.Callbacks{}
	}
	return New(
		hub.New(session, callbacks, cfg.Hub),
		snapshot.New(session, cfg.Snapshot),
		callbacks,
	)
}

func (c *Client) Connect(ctx context.Context) error {
	return c.hub.Connect(ctx)
}

func (c *Client) Disconnect() error {
	return c.hub.Disconnect()
}

func (c *Client) IsConnected() bool {
	return c.hub.IsConnected()
}

func (c *Client) requireConnected() error {
	if !c.hub.IsConnected() {
		return exception.ErrNotConnected
	}
	return nil
}

// seed delivers a snapshot. Callback failures are reported, never returned.
func (c *Client) seed(_ bool, err error) {
	if err != nil {
		logs.Warnf("seed snapshot, err: %+v", err)
		c.callbacks.ReportError(err, false)
	}
}

func (c *Client) join(ctx context.Context, group string) error {
	if err := c.hub.JoinGroup(ctx, group); err != nil {
		return err
	}
	logs.Infof("joined group %s", group)
	return nil
}

func (c *Client) quit(ctx context.Context, group string) error {
	if err := c.hub.QuitGroup(ctx, group); err != nil {
		return err
	}
	logs.Infof("quit group %s", group)
	return nil
}

// SubscribePersonalPortfolio seeds the portfolio and joins one group per position.
// Every group name is resolved before the first join.
func (c *Client) SubscribePersonalPortfolio(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	portfolio, orderBook, err := c.source.PersonalPortfolio(ctx)
	if err != nil {
		logs.Errorf("get personal portfolio, err: %+v", err)
		return err
	}
	c.seed(c.callbacks.EmitPersonalPortfolio(portfolio, orderBook))

	groups := make([]string, 0, portfolio.Len())
	for _, row := range portfolio.Rows() {
		code, err := adapter.SettlementCodeForRequest(row.Settlement, row.Symbol)
		if err != nil {
			logs.Errorf("resolve portfolio group of %s, settlement: %q, err: %+v", row.Symbol, row.Settlement, err)
			return err
		}
		groups = append(groups, adapter.PortfolioGroup(row.Symbol, code))
	}

	for _, group := range groups {
		if err := c.join(ctx, group); err != nil {
			return err
		}
		c.portfolioGroups = append(c.portfolioGroups, group)
	}

	return nil
}

// UnsubscribePersonalPortfolio quits every group joined by SubscribePersonalPortfolio.
// Groups that could not be quit stay recorded.
func (c *Client) UnsubscribePersonalPortfolio(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	for i, group := range c.portfolioGroups {
		if err := c.quit(ctx, group); err != nil {
			c.portfolioGroups = c.portfolioGroups[i:]
			return err
		}
	}
	c.portfolioGroups = nil

	return nil
}

// PortfolioGroups returns the portfolio groups currently joined.
func (c *Client) PortfolioGroups() []string {
	return append([]string(nil), c.portfolioGroups...)
}

func securityCodes(board, settlement string) (string, string, error) {
	if board == "" {
		return "", "", exception.ErrBoardNotAssigned
	}
	if settlement == "" {
		return "", "", exception.ErrSettlementNotAssigned
	}

	boardCode, err := adapter.BoardCodeForRequest(board)
	if err != nil {
		return "", "", err
	}
	settlementCode, err := adapter.SettlementCodeForRequest(settlement, "")
	if err != nil {
		return "", "", err
	}
	return boardCode, settlementCode, nil
}

// SubscribeSecurities seeds and joins a board, for example bluechips and 48hs.
func (c *Client) SubscribeSecurities(ctx context.Context, board, settlement string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	boardCode, settlementCode, err := securityCodes(board, settlement)
	if err != nil {
		return err
	}

	table, err := c.source.Securities(ctx, boardCode, settlementCode)
	if err != nil {
		logs.Errorf("get securities %s %s, err: %+v", board, settlement, err)
		return err
	}
	c.seed(c.callbacks.EmitSecurities(table))

	return c.join(ctx, adapter.SecurityGroup(boardCode, settlementCode))
}

func (c *Client) UnsubscribeSecurities(ctx context.Context, board, settlement string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	boardCode, settlementCode, err := securityCodes(board, settlement)
	if err != nil {
		return err
	}

	return c.quit(ctx, adapter.SecurityGroup(boardCode, settlementCode))
}

func (c *Client) SubscribeOptions(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	table, err := c.source.Options(ctx)
	if err != nil {
		logs.Errorf("get options, err: %+v", err)
		return err
	}
	c.seed(c.callbacks.EmitOptions(table))

	return c.join(ctx, adapter.GroupOptions)
}

func (c *Client) UnsubscribeOptions(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	return c.quit(ctx, adapter.GroupOptions)
}

func (c *Client) SubscribeRepos(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}

	table, err := c.source.Repos(ctx)
	if err != nil {
		logs.Errorf("get repos, err: %+v", err)
		return err
	}
	c.seed(c.callbacks.EmitRepos(table))

	return c.join(ctx, adapter.GroupRepos)
}

func (c *Client) UnsubscribeRepos(ctx context.Context) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	return c.quit(ctx, adapter.GroupRepos)
}

func orderBookCodes(symbol, settlement string) (string, string, error) {
	if symbol == "" {
		return "", "", exception.ErrSymbolNotAssigned
	}
	symbol = adapter.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", "", exception.ErrSymbolNotAssigned
	}

	code, err := adapter.SettlementCodeForRequest(settlement, symbol)
	if err != nil {
		return "", "", err
	}
	return symbol, code, nil
}

// SubscribeOrderBook seeds and joins the level 2 book of symbol. Options take
// an empty settlement and repo currencies a YYYYMMDD date.
func (c *Client) SubscribeOrderBook(ctx context.Context, symbol, settlement string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	symbol, code, err := orderBookCodes(symbol, settlement)
	if err != nil {
		return err
	}

	table, err := c.source.OrderBook(ctx, symbol, code)
	if err != nil {
		logs.Errorf("get order book %s, err: %+v", symbol, err)
		return err
	}
	c.seed(c.callbacks.EmitOrderBook(table))

	return c.join(ctx, adapter.OrderBookGroup(symbol, code))
}

func (c *Client) UnsubscribeOrderBook(ctx context.Context, symbol, settlement string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	symbol, code, err := orderBookCodes(symbol, settlement)
	if err != nil {
		return err
	}

	return c.quit(ctx, adapter.OrderBookGroup(symbol, code))
}
