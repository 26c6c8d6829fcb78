package snapshot

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebroker/internal/adapter"
	"homebroker/internal/normalize"
	"homebroker/pkg/exception"
)

type captured struct {
	path   string
	body   map[string]string
	cookie string
	agent  string
}

type recorder struct {
	mu    sync.Mutex
	calls []captured
}

func (r *recorder) all() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.calls...)
}

func newTestServer(t *testing.T, reply func(path string) string) (*adapter.Session, *recorder) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{path: r.URL.Path, agent: r.UserAgent()}
		if ck, err := r.Cookie("ASP.NET_SessionId"); err == nil {
			c.cookie = ck.Value
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) != 0 {
			_ = json.Unmarshal(raw, &c.body)
		}
		rec.mu.Lock()
		rec.calls = append(rec.calls, c)
		rec.mu.Unlock()

		body := reply(r.URL.Path)
		if body == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return &adapter.Session{
		LoggedIn: true,
		BaseURL:  srv.URL,
		Cookies:  map[string]string{"ASP.NET_SessionId": "s1"},
	}, rec
}

func TestSecurities(t *testing.T) {
	session, calls := newTestServer(t, func(string) string {
		return `{"Success":true,"Error":null,"Result":{"Stocks":[
			{"Symbol":"GGAL","Term":"3","Panel":"accionesLideres","LastPrice":"1.234,5"},
			{"Symbol":"YPFD","Term":"3","Panel":"accionesLideres","LastPrice":25000.5}
		]}}`
	})

	table, err := New(session, Config{}).Securities(t.Context(), "accionesLideres", "3")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	row, ok := table.Get(normalize.InstrumentKey{Symbol: "GGAL", Settlement: "48hs"})
	require.True(t, ok)
	assert.Equal(t, "1234.5", row.Last.Decimal.String())
	assert.Equal(t, "bluechips", row.Group)

	row, ok = table.Get(normalize.InstrumentKey{Symbol: "YPFD", Settlement: "48hs"})
	require.True(t, ok)
	assert.Equal(t, "25000.5", row.Last.Decimal.String())

	require.Len(t, calls.all(), 1)
	call := calls.all()[0]
	assert.Equal(t, pathPanel, call.path)
	assert.Equal(t, map[string]string{"panel": "accionesLideres", "term": "3"}, call.body)
	assert.Equal(t, "s1", call.cookie)
	assert.Equal(t, adapter.UserAgent, call.agent)
}

func TestOptionsAndRepos(t *testing.T) {
	session, calls := newTestServer(t, func(string) string {
		return `{"Success":true,"Result":{"Stocks":null}}`
	})
	c := New(session, Config{})

	options, err := c.Options(t.Context())
	require.NoError(t, err)
	assert.True(t, options.Empty())
	assert.Equal(t, normalize.NewOptionsTable().Columns(), options.Columns())

	repos, err := c.Repos(t.Context())
	require.NoError(t, err)
	assert.True(t, repos.Empty())

	require.Len(t, calls.all(), 2)
	assert.Equal(t, "opciones", calls.all()[0].body["panel"])
	assert.Equal(t, "cauciones", calls.all()[1].body["panel"])
}

func TestPersonalPortfolio(t *testing.T) {
	session, calls := newTestServer(t, func(string) string {
		return `{"Success":true,"Result":[
			{"Symbol":"GGAL","Term":"3","StrikePrice":0,
			 "StockDepthBox":{"PriceDepthBox":{"BuySide":[{"Pos":1,"BuyPrice":"100"}],"SellSide":[]}}}
		]}`
	})

	portfolio, orderBook, err := New(session, Config{}).PersonalPortfolio(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, portfolio.Len())
	assert.Equal(t, normalize.OrderBookDepth, orderBook.Len())

	level, ok := orderBook.Get(normalize.OrderBookKey{Symbol: "GGAL", Settlement: "48hs", Position: 1})
	require.True(t, ok)
	assert.Equal(t, "100", level.Bid.Decimal.String())

	assert.Equal(t, pathFavorites, calls.all()[0].path)
}

func TestOrderBook(t *testing.T) {
	session, calls := newTestServer(t, func(string) string {
		return `{"Success":true,"Result":{"Stock":{"Symbol":"GGAL","StockDepthBox":null}}}`
	})

	table, err := New(session, Config{}).OrderBook(t.Context(), "GGAL", "1")
	require.NoError(t, err)
	require.Equal(t, normalize.OrderBookDepth, table.Len())
	for _, row := range table.Rows() {
		assert.Equal(t, "spot", row.Settlement)
		assert.False(t, row.Bid.Valid)
	}
	assert.Equal(t, map[string]string{"symbol": "GGAL", "term": "1"}, calls.all()[0].body)
}

func TestServerError(t *testing.T) {
	session, _ := newTestServer(t, func(string) string {
		return `{"Success":false,"Error":{"Codigo":1,"Descripcion":"Sesion expirada"},"Result":null}`
	})

	table, err := New(session, Config{}).Securities(t.Context(), "accionesLideres", "1")
	require.ErrorIs(t, err, exception.ErrServer)
	assert.Contains(t, err.Error(), "Sesion expirada")
	assert.True(t, table.Empty())
}

func TestHTTPError(t *testing.T) {
	session, _ := newTestServer(t, func(string) string { return "" })

	_, err := New(session, Config{}).Repos(t.Context())
	require.Error(t, err)
	assert.NotErrorIs(t, err, exception.ErrServer)
}

func TestNotLoggedIn(t *testing.T) {
	session, calls := newTestServer(t, func(string) string { return `{"Success":true}` })
	session.LoggedIn = false

	_, err := New(session, Config{}).Options(t.Context())
	require.ErrorIs(t, err, exception.ErrNotLoggedIn)
	assert.Empty(t, calls.all())
}
