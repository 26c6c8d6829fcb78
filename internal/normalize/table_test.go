package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablePutReplacesInPlace(t *testing.T) {
	table := NewOptionsTable()
	table.Put(OptionRow{Symbol: "GFGC1000AB", OptionInfo: OptionInfo{UnderlyingAsset: "GGAL"}})
	table.Put(OptionRow{Symbol: "GFGV1000AB"})
	table.Put(OptionRow{Symbol: "GFGC1000AB", OptionInfo: OptionInfo{UnderlyingAsset: "GGAL2"}})

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"GFGC1000AB", "GFGV1000AB"}, table.Keys())

	row, ok := table.Get("GFGC1000AB")
	require.True(t, ok)
	assert.Equal(t, "GGAL2", row.UnderlyingAsset)
}

func TestTableSortRebuildsIndex(t *testing.T) {
	table := NewOptionsTable()
	for _, s := range []string{"C", "A", "B"} {
		table.Put(OptionRow{Symbol: s})
	}
	table.Sort(func(a, b OptionRow) bool { return a.Symbol < b.Symbol })
	assert.Equal(t, []string{"A", "B", "C"}, table.Keys())

	table.Put(OptionRow{Symbol: "A", OptionInfo: OptionInfo{UnderlyingAsset: "X"}})
	assert.Equal(t, "X", table.Rows()[0].UnderlyingAsset)
}

func TestNilTable(t *testing.T) {
	var table *PortfolioTable
	assert.True(t, table.Empty())
	assert.Nil(t, table.Rows())
	assert.Empty(t, table.Columns())
}

type schema struct {
	name    string
	index   []string
	columns []string
	empty   bool
}

func schemaOf[K comparable, R Keyed[K]](t *Table[K, R]) schema {
	return schema{name: t.Name(), index: t.Index(), columns: t.Columns(), empty: t.Empty()}
}

func TestCanonicalEmptyTables(t *testing.T) {
	quote := []string{
		"bid_size", "bid", "ask", "ask_size", "last", "change", "open", "high", "low",
		"previous_close", "turnover", "volume", "operations", "datetime",
	}
	option := []string{"expiration", "strike", "kind", "underlying_asset"}
	join := func(groups ...[]string) []string {
		var out []string
		for _, g := range groups {
			out = append(out, g...)
		}
		return out
	}

	normalizers := map[string]func() (schema, error){
		"personal_portfolio": func() (schema, error) {
			table, err := PersonalPortfolio(nil)
			return schemaOf(table), err
		},
		"securities": func() (schema, error) {
			table, err := Securities(nil)
			return schemaOf(table), err
		},
		"options": func() (schema, error) {
			table, err := Options(nil)
			return schemaOf(table), err
		},
		"repos": func() (schema, error) {
			table, err := Repos(nil)
			return schemaOf(table), err
		},
		"order_book": func() (schema, error) {
			table, err := OrderBooks(nil)
			return schemaOf(table), err
		},
	}

	testCases := []struct {
		name    string
		index   []string
		columns []string
	}{
		{
			"personal_portfolio",
			[]string{"symbol", "settlement"},
			join([]string{"symbol", "settlement"}, quote, option),
		},
		{
			"securities",
			[]string{"symbol", "settlement"},
			join([]string{"symbol", "settlement"}, quote, []string{"group"}),
		},
		{
			"options",
			[]string{"symbol"},
			join([]string{"symbol"}, quote, option),
		},
		{
			"repos",
			[]string{"symbol", "settlement"},
			[]string{
				"symbol", "days", "settlement", "bid_amount", "bid_rate", "ask_rate", "ask_amount",
				"last", "change", "open", "high", "low", "previous_close", "turnover", "volume",
				"operations", "datetime",
			},
		},
		{
			"order_book",
			[]string{"symbol", "settlement", "position"},
			[]string{
				"symbol", "settlement", "position",
				"bid_offers_count", "bid_size", "bid", "ask", "ask_size", "ask_offers_count",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizers[tc.name]()
			require.NoError(t, err)
			assert.True(t, got.empty)
			assert.Equal(t, tc.name, got.name)
			assert.Equal(t, tc.index, got.index)
			assert.Equal(t, tc.columns, got.columns)
		})
	}
}
