package adapter

import (
	"testing"

	"homebroker/internal/adapter/enum"
	"homebroker/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySymbol(t *testing.T) {
	assert.Equal(t, enum.RequestOption, ClassifySymbol("GFGC1000FE"))
	assert.Equal(t, enum.RequestRepo, ClassifySymbol("PESOS"))
	assert.Equal(t, enum.RequestRepo, ClassifySymbol("DOLAR"))
	assert.Equal(t, enum.RequestAsset, ClassifySymbol("GGAL"))
	assert.Equal(t, enum.RequestAsset, ClassifySymbol("pesos"))
}

func TestBoardCodes(t *testing.T) {
	for _, board := range enum.Boards() {
		code, err := BoardCodeForRequest(board.Name())
		require.NoError(t, err)
		assert.Equal(t, board.Name(), BoardNameFromWireCode(code))
	}

	code, err := BoardCodeForRequest("bluechips")
	require.NoError(t, err)
	assert.Equal(t, "accionesLideres", code)

	_, err = BoardCodeForRequest("nope")
	require.ErrorIs(t, err, exception.ErrInvalidBoard)
	require.ErrorIs(t, err, exception.ErrInvalidArgument)

	assert.Empty(t, BoardNameFromWireCode("unknown"))
}

func TestSettlementCodesAreInverse(t *testing.T) {
	testCases := []struct {
		desc       string
		symbol     string
		settlement string
		code       string
	}{
		{"asset spot", "GGAL", "spot", "1"},
		{"asset 24hs", "GGAL", "24hs", "2"},
		{"asset 48hs", "AL30", "48hs", "3"},
		{"option", "GFGC1000FE", "", ""},
		{"repo", "PESOS", "20240105", "20240105"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			code, err := SettlementCodeForRequest(tc.settlement, tc.symbol)
			require.NoError(t, err)
			assert.Equal(t, tc.code, code)

			name, err := SettlementNameFromResponse(code, tc.symbol)
			require.NoError(t, err)
			assert.Equal(t, tc.settlement, name)
		})
	}
}

func TestSettlementCodeForRequestRejects(t *testing.T) {
	testCases := []struct {
		desc       string
		symbol     string
		settlement string
	}{
		{"option with settlement", "GFGC1000FE", "spot"},
		{"repo without date", "PESOS", "spot"},
		{"repo bad date", "DOLAR", "2024-01-05"},
		{"asset unknown", "GGAL", "72hs"},
		{"asset empty", "GGAL", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := SettlementCodeForRequest(tc.settlement, tc.symbol)
			require.ErrorIs(t, err, exception.ErrInvalidSettlement)
		})
	}
}

func TestSettlementNameFromResponse(t *testing.T) {
	name, err := SettlementNameFromResponse("7", "PESOS")
	require.NoError(t, err)
	assert.Equal(t, "7", name)

	_, err = SettlementNameFromResponse("9", "GGAL")
	require.ErrorIs(t, err, exception.ErrInvalidSettlement)
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "GGAL", NormalizeSymbol("  ggal "))
}

func TestGroups(t *testing.T) {
	assert.Equal(t, "accionesLideres-3", SecurityGroup("accionesLideres", "3"))
	assert.Equal(t, "GGAL*3*cj", OrderBookGroup("GGAL", "3"))
	assert.Equal(t, "GGAL*3*fv", PortfolioGroup("GGAL", "3"))
}

func TestBrokerRegistry(t *testing.T) {
	b, ok := BrokerByID(265)
	require.True(t, ok)
	assert.Equal(t, "https://cocoscap.com", b.Page)

	_, ok = BrokerByID(1)
	assert.False(t, ok)

	all := Brokers()
	require.Len(t, all, 13)
	all[0].Page = "mutated"
	b, _ = BrokerByID(all[0].ID)
	assert.NotEqual(t, "mutated", b.Page)
}
