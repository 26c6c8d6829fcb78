package ingest

import (
	"fmt"

	"homebroker/internal/normalize"
	"homebroker/pkg/exception"
)

// Callbacks is the consumer surface. Every field is optional: a nil callback
// suppresses delivery for its stream.
type Callbacks struct {
	OnOpen  func()
	OnClose func()

	// OnPersonalPortfolio receives the portfolio positions and the order books
	// embedded in the same records.
	OnPersonalPortfolio func(portfolio *normalize.PortfolioTable, orderBook *normalize.OrderBookTable)
	OnSecurities        func(securities *normalize.SecuritiesTable)
	OnOptions           func(options *normalize.OptionsTable)
	OnRepos             func(repos *normalize.ReposTable)
	OnOrderBook         func(orderBook *normalize.OrderBookTable)

	// OnError receives asynchronous failures. connectionLost is true only for
	// fatal transport errors. Panics raised here are discarded.
	OnError func(err error, connectionLost bool)
}

// guard runs fn and turns a panic into an ErrCallbackPanic error.
func guard(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", exception.ErrCallbackPanic, name, r)
		}
	}()

	fn()
	return nil
}

func (c *Callbacks) EmitOpen() error {
	if c == nil || c.OnOpen == nil {
		return nil
	}
	return guard("on open", c.OnOpen)
}

func (c *Callbacks) EmitClose() error {
	if c == nil || c.OnClose == nil {
		return nil
	}
	return guard("on close", c.OnClose)
}

func (c *Callbacks) HasPersonalPortfolio() bool { return c != nil && c.OnPersonalPortfolio != nil }
func (c *Callbacks) HasSecurities() bool        { return c != nil && c.OnSecurities != nil }
func (c *Callbacks) HasOptions() bool           { return c != nil && c.OnOptions != nil }
func (c *Callbacks) HasRepos() bool             { return c != nil && c.OnRepos != nil }
func (c *Callbacks) HasOrderBook() bool         { return c != nil && c.OnOrderBook != nil }

// EmitPersonalPortfolio delivers the tables when at least one holds rows.
// sent reports whether the callback ran.
func (c *Callbacks) EmitPersonalPortfolio(portfolio *normalize.PortfolioTable, orderBook *normalize.OrderBookTable) (sent bool, err error) {
	if !c.HasPersonalPortfolio() || (portfolio.Empty() && orderBook.Empty()) {
		return false, nil
	}
	if portfolio == nil {
		portfolio = normalize.NewPortfolioTable()
	}
	if orderBook == nil {
		orderBook = normalize.NewOrderBookTable()
	}
	return true, guard("on personal portfolio", func() { c.OnPersonalPortfolio(portfolio, orderBook) })
}

func (c *Callbacks) EmitSecurities(securities *normalize.SecuritiesTable) (sent bool, err error) {
	if !c.HasSecurities() || securities.Empty() {
		return false, nil
	}
	return true, guard("on securities", func() { c.OnSecurities(securities) })
}

func (c *Callbacks) EmitOptions(options *normalize.OptionsTable) (sent bool, err error) {
	if !c.HasOptions() || options.Empty() {
		return false, nil
	}
	return true, guard("on options", func() { c.OnOptions(options) })
}

func (c *Callbacks) EmitRepos(repos *normalize.ReposTable) (sent bool, err error) {
	if !c.HasRepos() || repos.Empty() {
		return false, nil
	}
	return true, guard("on repos", func() { c.OnRepos(repos) })
}

func (c *Callbacks) EmitOrderBook(orderBook *normalize.OrderBookTable) (sent bool, err error) {
	if !c.HasOrderBook() || orderBook.Empty() {
		return false, nil
	}
	return true, guard("on order book", func() { c.OnOrderBook(orderBook) })
}

// ReportError hands err to OnError and swallows anything OnError panics with.
func (c *Callbacks) ReportError(err error, connectionLost bool) {
	if c == nil || c.OnError == nil || err == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	c.OnError(err, connectionLost)
}
