package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
	"golang.org/x/time/rate"

	"homebroker/internal/adapter"
	"homebroker/internal/normalize"
	"homebroker/pkg/exception"
)

const (
	pathFavorites = "/Prices/GetFavoritos"
	pathPanel     = "/Prices/GetByPanel"
	pathStock     = "/Prices/GetByStock"

	panelOptions = "opciones"
	panelRepos   = "cauciones"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultRate    = 5
	DefaultBurst   = 5
)

// Config tunes the REST client. Zero values pick defaults.
type Config struct {
	Timeout time.Duration
	// Rate is the sustained requests per second.
	Rate  float64
	Burst int
	// HTTPClient overrides the transport, mostly for tests and proxies.
	HTTPClient *http.Client
}

// Client reads one-shot snapshots from the home broker REST API.
type Client struct {
	session *adapter.Session
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New builds a snapshot client bound to session.
func New(session *adapter.Session, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		session: session,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		timeout: cfg.Timeout,
	}
}

type response struct {
	Success bool `json:"Success"`
	Error   *struct {
		Codigo      int    `json:"Codigo"`
		Descripcion string `json:"Descripcion"`
	} `json:"Error"`
	Result json.RawMessage `json:"Result"`
}

type panelRequest struct {
	Panel string `json:"panel"`
	Term  string `json:"term"`
}

type stockRequest struct {
	Symbol string `json:"symbol"`
	Term   string `json:"term"`
}

type panelResult struct {
	Stocks json.RawMessage `json:"Stocks"`
}

type stockResult struct {
	Stock json.RawMessage `json:"Stock"`
}

// post sends payload to path and returns the Result of a successful response.
func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	if !c.session.IsLoggedIn() {
		return nil, exception.ErrNotLoggedIn
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if payload != nil {
		buf, err := sonic.ConfigFastest.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "marshal payload").With("path", path)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.URL(path), body)
	if err != nil {
		return nil, errors.Wrap(err, "new request").With("path", path)
	}
	req.Header.Set("User-Agent", adapter.UserAgent)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	for _, cookie := range c.session.HTTPCookies() {
		req.AddCookie(cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request").With("path", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body").With("path", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	var r response
	if err := sonic.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrap(err, "unmarshal response").With("path", path)
	}
	if !r.Success {
		desc := "unknown error"
		if r.Error != nil && r.Error.Descripcion != "" {
			desc = r.Error.Descripcion
		}
		return nil, fmt.Errorf("%w: %s", exception.ErrServer, desc)
	}

	return r.Result, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// panel fetches the Stocks of a board panel.
func (c *Client) panel(ctx context.Context, panel, term string) ([]adapter.RawRecord, error) {
	result, err := c.post(ctx, pathPanel, panelRequest{Panel: panel, Term: term})
	if err != nil {
		return nil, err
	}
	if isNull(result) {
		return nil, nil
	}

	var pr panelResult
	if err := sonic.Unmarshal(result, &pr); err != nil {
		return nil, errors.Wrap(err, "unmarshal panel result").With("panel", panel)
	}
	return adapter.DecodeRecords(pr.Stocks)
}

// PersonalPortfolio returns the favorites positions and the order books embedded in them.
func (c *Client) PersonalPortfolio(ctx context.Context) (*normalize.PortfolioTable, *normalize.OrderBookTable, error) {
	result, err := c.post(ctx, pathFavorites, nil)
	if err != nil {
		return normalize.NewPortfolioTable(), normalize.NewOrderBookTable(), err
	}

	records, err := adapter.DecodeRecords(result)
	if err != nil {
		return normalize.NewPortfolioTable(), normalize.NewOrderBookTable(), err
	}

	portfolio, err := normalize.PersonalPortfolio(records)
	if err != nil {
		return portfolio, normalize.NewOrderBookTable(), err
	}
	orderBook, err := normalize.OrderBooks(records)
	return portfolio, orderBook, err
}

// Securities returns a board, both arguments in wire codes.
func (c *Client) Securities(ctx context.Context, boardCode, settlementCode string) (*normalize.SecuritiesTable, error) {
	records, err := c.panel(ctx, boardCode, settlementCode)
	if err != nil {
		return normalize.NewSecuritiesTable(), err
	}
	return normalize.Securities(records)
}

func (c *Client) Options(ctx context.Context) (*normalize.OptionsTable, error) {
	records, err := c.panel(ctx, panelOptions, "")
	if err != nil {
		return normalize.NewOptionsTable(), err
	}
	return normalize.Options(records)
}

func (c *Client) Repos(ctx context.Context) (*normalize.ReposTable, error) {
	records, err := c.panel(ctx, panelRepos, "")
	if err != nil {
		return normalize.NewReposTable(), err
	}
	return normalize.Repos(records)
}

// OrderBook returns the five level book of symbol. A stock without depth
// still yields the five empty levels.
func (c *Client) OrderBook(ctx context.Context, symbol, settlementCode string) (*normalize.OrderBookTable, error) {
	result, err := c.post(ctx, pathStock, stockRequest{Symbol: symbol, Term: settlementCode})
	if err != nil {
		return normalize.NewOrderBookTable(), err
	}

	var stock adapter.RawRecord
	if !isNull(result) {
		var sr stockResult
		if err := sonic.Unmarshal(result, &sr); err != nil {
			return normalize.NewOrderBookTable(), errors.Wrap(err, "unmarshal stock result").With("symbol", symbol)
		}
		records, err := adapter.DecodeRecords(sr.Stock)
		if err != nil {
			return normalize.NewOrderBookTable(), err
		}
		if len(records) != 0 {
			stock = records[0]
		}
	}

	return normalize.OrderBookOf(symbol, settlementCode, stock), nil
}
