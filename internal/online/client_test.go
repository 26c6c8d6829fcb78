package online

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebroker/internal/adapter"
	"homebroker/internal/ingest"
	"homebroker/internal/normalize"
	"homebroker/pkg/exception"
)

type fakeHub struct {
	connected bool
	joined    []string
	quit      []string
	quitErr   map[string]error
}

func (h *fakeHub) Connect(context.Context) error {
	if h.connected {
		return exception.ErrAlreadyConnected
	}
	h.connected = true
	return nil
}

func (h *fakeHub) Disconnect() error {
	if !h.connected {
		return exception.ErrNotConnected
	}
	h.connected = false
	return nil
}

func (h *fakeHub) IsConnected() bool { return h.connected }

func (h *fakeHub) JoinGroup(_ context.Context, name string) error {
	h.joined = append(h.joined, name)
	return nil
}

func (h *fakeHub) QuitGroup(_ context.Context, name string) error {
	if err := h.quitErr[name]; err != nil {
		return err
	}
	h.quit = append(h.quit, name)
	return nil
}

type fakeSource struct {
	mu        sync.Mutex
	portfolio *normalize.PortfolioTable
	options   *normalize.OptionsTable
	err       error
	requests  []string
}

func (s *fakeSource) record(req string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *fakeSource) PersonalPortfolio(context.Context) (*normalize.PortfolioTable, *normalize.OrderBookTable, error) {
	s.record("portfolio")
	if s.portfolio == nil {
		return normalize.NewPortfolioTable(), normalize.NewOrderBookTable(), s.err
	}
	return s.portfolio, normalize.NewOrderBookTable(), s.err
}

func (s *fakeSource) Securities(_ context.Context, boardCode, settlementCode string) (*normalize.SecuritiesTable, error) {
	s.record("securities:" + boardCode + ":" + settlementCode)
	table := normalize.NewSecuritiesTable()
	name, _ := adapter.SettlementNameFromResponse(settlementCode, "GGAL")
	table.Put(normalize.SecurityRow{Symbol: "GGAL", Settlement: name, Group: adapter.BoardNameFromWireCode(boardCode)})
	table.Put(normalize.SecurityRow{Symbol: "ALUA", Settlement: name, Group: adapter.BoardNameFromWireCode(boardCode)})
	return table, s.err
}

func (s *fakeSource) Options(context.Context) (*normalize.OptionsTable, error) {
	s.record("options")
	if s.options == nil {
		return normalize.NewOptionsTable(), s.err
	}
	return s.options, s.err
}

func (s *fakeSource) Repos(context.Context) (*normalize.ReposTable, error) {
	s.record("repos")
	table := normalize.NewReposTable()
	table.Put(normalize.RepoRow{Symbol: "PESOS", Settlement: "20241021"})
	return table, s.err
}

func (s *fakeSource) OrderBook(_ context.Context, symbol, settlementCode string) (*normalize.OrderBookTable, error) {
	s.record("order_book:" + symbol + ":" + settlementCode)
	return normalize.OrderBook(symbol, settlementCode, nil, nil), s.err
}

func connectedClient(t *testing.T, callbacks *ingest.Callbacks) (*Client, *fakeHub, *fakeSource) {
	h := &fakeHub{}
	src := &fakeSource{}
	c := New(h, src, callbacks)
	require.NoError(t, c.Connect(t.Context()))
	return c, h, src
}

func TestSubscribeSecuritiesWhileDisconnected(t *testing.T) {
	h := &fakeHub{}
	src := &fakeSource{}
	c := New(h, src, nil)

	err := c.SubscribeSecurities(t.Context(), "bluechips", "48hs")
	require.ErrorIs(t, err, exception.ErrNotConnected)
	assert.Empty(t, h.joined)
	assert.Empty(t, src.requests)
}

func TestSubscribeSecurities(t *testing.T) {
	var seeded *normalize.SecuritiesTable
	c, h, src := connectedClient(t, &ingest.Callbacks{
		OnSecurities: func(s *normalize.SecuritiesTable) { seeded = s },
	})

	require.NoError(t, c.SubscribeSecurities(t.Context(), "BlueChips", "48HS"))
	assert.Equal(t, []string{"securities:accionesLideres:3"}, src.requests)
	assert.Equal(t, []string{"accionesLideres-3"}, h.joined)
	require.NotNil(t, seeded)
	assert.Equal(t, 2, seeded.Len())

	require.NoError(t, c.UnsubscribeSecurities(t.Context(), "bluechips", "48hs"))
	assert.Equal(t, []string{"accionesLideres-3"}, h.quit)
	assert.Len(t, src.requests, 1, "unsubscribe reads no snapshot")
}

func TestSubscribeSecuritiesValidation(t *testing.T) {
	c, h, src := connectedClient(t, nil)

	testCases := []struct {
		desc       string
		board      string
		settlement string
		expected   error
	}{
		{"missing board", "", "spot", exception.ErrBoardNotAssigned},
		{"missing settlement", "bluechips", "", exception.ErrSettlementNotAssigned},
		{"unknown board", "merval", "spot", exception.ErrInvalidBoard},
		{"unknown settlement", "bluechips", "72hs", exception.ErrInvalidSettlement},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			err := c.SubscribeSecurities(t.Context(), tc.board, tc.settlement)
			require.ErrorIs(t, err, tc.expected)
			require.ErrorIs(t, err, exception.ErrInvalidArgument)

			err = c.UnsubscribeSecurities(t.Context(), tc.board, tc.settlement)
			require.ErrorIs(t, err, tc.expected)
		})
	}

	assert.Empty(t, h.joined)
	assert.Empty(t, h.quit)
	assert.Empty(t, src.requests)
}

func TestSeedPanicStillJoins(t *testing.T) {
	var reported error
	var lost bool
	c, h, _ := connectedClient(t, &ingest.Callbacks{
		OnRepos: func(*normalize.ReposTable) { panic("consumer bug") },
		OnError: func(err error, connectionLost bool) {
			reported, lost = err, connectionLost
		},
	})

	require.NoError(t, c.SubscribeRepos(t.Context()))
	assert.ErrorIs(t, reported, exception.ErrCallbackPanic)
	assert.False(t, lost)
	assert.Equal(t, []string{"cauciones-"}, h.joined)
}

func TestSnapshotFailureAbortsSubscribe(t *testing.T) {
	c, h, src := connectedClient(t, nil)
	src.err = exception.ErrServer

	require.ErrorIs(t, c.SubscribeOptions(t.Context()), exception.ErrServer)
	assert.Empty(t, h.joined)
}

func TestEmptySeedSkipsCallback(t *testing.T) {
	called := false
	c, h, _ := connectedClient(t, &ingest.Callbacks{
		OnOptions: func(*normalize.OptionsTable) { called = true },
	})

	require.NoError(t, c.SubscribeOptions(t.Context()))
	assert.False(t, called)
	assert.Equal(t, []string{"opciones-"}, h.joined)

	require.NoError(t, c.UnsubscribeOptions(t.Context()))
	assert.Equal(t, []string{"opciones-"}, h.quit)
}

func TestPersonalPortfolioGroups(t *testing.T) {
	c, h, src := connectedClient(t, nil)
	src.portfolio = normalize.NewPortfolioTable()
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "GGAL", Settlement: "48hs"})
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "YPFD", Settlement: "24hs"})

	require.NoError(t, c.SubscribePersonalPortfolio(t.Context()))
	assert.Equal(t, []string{"GGAL*3*fv", "YPFD*2*fv"}, h.joined)
	assert.Equal(t, []string{"GGAL*3*fv", "YPFD*2*fv"}, c.PortfolioGroups())

	require.NoError(t, c.UnsubscribePersonalPortfolio(t.Context()))
	assert.Equal(t, []string{"GGAL*3*fv", "YPFD*2*fv"}, h.quit)
	assert.Empty(t, c.PortfolioGroups())

	require.NoError(t, c.UnsubscribePersonalPortfolio(t.Context()))
	assert.Len(t, h.quit, 2, "a repeat unsubscribe quits nothing")
}

func TestPersonalPortfolioInvalidSettlementJoinsNothing(t *testing.T) {
	c, h, src := connectedClient(t, nil)
	src.portfolio = normalize.NewPortfolioTable()
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "GGAL", Settlement: "48hs"})
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "YPFD", Settlement: ""})

	require.ErrorIs(t, c.SubscribePersonalPortfolio(t.Context()), exception.ErrInvalidSettlement)
	assert.Empty(t, h.joined)
	assert.Empty(t, c.PortfolioGroups())
}

func TestPersonalPortfolioPartialQuit(t *testing.T) {
	c, h, src := connectedClient(t, nil)
	src.portfolio = normalize.NewPortfolioTable()
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "GGAL", Settlement: "48hs"})
	src.portfolio.Put(normalize.PortfolioRow{Symbol: "YPFD", Settlement: "24hs"})
	require.NoError(t, c.SubscribePersonalPortfolio(t.Context()))

	h.quitErr = map[string]error{"YPFD*2*fv": errors.New("transport down")}
	require.Error(t, c.UnsubscribePersonalPortfolio(t.Context()))
	assert.Equal(t, []string{"YPFD*2*fv"}, c.PortfolioGroups())
}

func TestSubscribeOrderBook(t *testing.T) {
	var seeded *normalize.OrderBookTable
	c, h, src := connectedClient(t, &ingest.Callbacks{
		OnOrderBook: func(ob *normalize.OrderBookTable) { seeded = ob },
	})

	require.NoError(t, c.SubscribeOrderBook(t.Context(), " ggal ", "spot"))
	assert.Equal(t, []string{"order_book:GGAL:1"}, src.requests)
	assert.Equal(t, []string{"GGAL*1*cj"}, h.joined)
	require.NotNil(t, seeded)
	assert.Equal(t, normalize.OrderBookDepth, seeded.Len())

	require.NoError(t, c.SubscribeOrderBook(t.Context(), "GFGC1000AB", ""))
	assert.Equal(t, "GFGC1000AB**cj", h.joined[1])

	require.NoError(t, c.SubscribeOrderBook(t.Context(), "PESOS", "20241021"))
	assert.Equal(t, "PESOS*20241021*cj", h.joined[2])

	require.NoError(t, c.UnsubscribeOrderBook(t.Context(), "GFGC1000AB", ""))
	assert.Equal(t, []string{"GFGC1000AB**cj"}, h.quit)
}

func TestSubscribeOrderBookValidation(t *testing.T) {
	c, h, _ := connectedClient(t, nil)

	require.ErrorIs(t, c.SubscribeOrderBook(t.Context(), "", "spot"), exception.ErrSymbolNotAssigned)
	require.ErrorIs(t, c.SubscribeOrderBook(t.Context(), "GFGC1000AB", "spot"), exception.ErrInvalidSettlement)
	require.ErrorIs(t, c.SubscribeOrderBook(t.Context(), "DOLAR", "2024-10-21"), exception.ErrInvalidSettlement)
	require.ErrorIs(t, c.UnsubscribeOrderBook(t.Context(), "GGAL", ""), exception.ErrInvalidSettlement)
	assert.Empty(t, h.joined)
	assert.Empty(t, h.quit)
}

func TestUnsubscribeWhileDisconnected(t *testing.T) {
	c := New(&fakeHub{}, &fakeSource{}, nil)

	assert.ErrorIs(t, c.UnsubscribePersonalPortfolio(t.Context()), exception.ErrNotConnected)
	assert.ErrorIs(t, c.UnsubscribeOptions(t.Context()), exception.ErrNotConnected)
	assert.ErrorIs(t, c.UnsubscribeRepos(t.Context()), exception.ErrNotConnected)
	assert.ErrorIs(t, c.UnsubscribeOrderBook(t.Context(), "GGAL", "spot"), exception.ErrNotConnected)
	assert.ErrorIs(t, c.SubscribeOrderBook(t.Context(), "GGAL", "spot"), exception.ErrNotConnected)
	assert.ErrorIs(t, c.SubscribePersonalPortfolio(t.Context()), exception.ErrNotConnected)
}

func TestMarketSnapshot(t *testing.T) {
	src := &fakeSource{options: normalize.NewOptionsTable()}
	src.options.Put(normalize.OptionRow{Symbol: "GFGV1000FE"})
	src.options.Put(normalize.OptionRow{Symbol: "GFGC1000FE"})
	c := New(&fakeHub{}, src, nil)

	snap, err := c.MarketSnapshot(t.Context())
	require.NoError(t, err)
	require.Len(t, snap.Boards, 6)
	require.NotNil(t, snap.Options)

	bluechips := snap.Boards["bluechips"]
	require.NotNil(t, bluechips)
	keys := bluechips.Keys()
	require.Len(t, keys, 6)
	assert.Equal(t, normalize.InstrumentKey{Symbol: "ALUA", Settlement: "spot"}, keys[0])
	assert.Equal(t, normalize.InstrumentKey{Symbol: "ALUA", Settlement: "24hs"}, keys[1])
	assert.Equal(t, normalize.InstrumentKey{Symbol: "ALUA", Settlement: "48hs"}, keys[2])
	assert.Equal(t, normalize.InstrumentKey{Symbol: "GGAL", Settlement: "spot"}, keys[3])

	assert.Equal(t, []string{"GFGC1000FE", "GFGV1000FE"}, snap.Options.Keys())
}

func TestMarketSnapshotError(t *testing.T) {
	src := &fakeSource{err: exception.ErrServer}
	c := New(&fakeHub{}, src, nil)

	_, err := c.MarketSnapshot(t.Context())
	require.ErrorIs(t, err, exception.ErrServer)
}
