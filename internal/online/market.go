package online

import (
	"context"

	"github.com/yanun0323/logs"
	"golang.org/x/sync/errgroup"

	"homebroker/internal/adapter/enum"
	"homebroker/internal/normalize"
)

// MarketSnapshot holds every board across the three settlements, keyed by
// board name, and the options board.
type MarketSnapshot struct {
	Boards  map[string]*normalize.SecuritiesTable
	Options *normalize.OptionsTable
}

// MarketSnapshot reads all boards concurrently. Board rows are sorted by
// symbol with spot first, options by symbol. It does not need the hub connection.
func (c *Client) MarketSnapshot(ctx context.Context) (MarketSnapshot, error) {
	boards := enum.Boards()
	settlements := enum.Settlements()
	parts := make([][]*normalize.SecuritiesTable, len(boards))
	for i := range parts {
		parts[i] = make([]*normalize.SecuritiesTable, len(settlements))
	}

	var options *normalize.OptionsTable

	g, gctx := errgroup.WithContext(ctx)
	for i, board := range boards {
		for j, settlement := range settlements {
			g.Go(func() error {
				table, err := c.source.Securities(gctx, board.Code(), settlement.Code())
				if err != nil {
					logs.Errorf("market snapshot, board: %s, settlement: %s, err: %+v", board.Name(), settlement.Name(), err)
					return err
				}
				parts[i][j] = table
				return nil
			})
		}
	}
	g.Go(func() error {
		table, err := c.source.Options(gctx)
		if err != nil {
			logs.Errorf("market snapshot, options, err: %+v", err)
			return err
		}
		options = table
		return nil
	})

	if err := g.Wait(); err != nil {
		return MarketSnapshot{}, err
	}

	if options == nil {
		options = normalize.NewOptionsTable()
	}
	options.Sort(func(a, b normalize.OptionRow) bool { return a.Symbol < b.Symbol })

	snap := MarketSnapshot{
		Boards:  make(map[string]*normalize.SecuritiesTable, len(boards)),
		Options: options,
	}
	for i, board := range boards {
		merged := normalize.NewSecuritiesTable()
		for _, table := range parts[i] {
			merged.Append(table)
		}
		merged.Sort(lessSecurity)
		snap.Boards[board.Name()] = merged
	}

	return snap, nil
}

func lessSecurity(a, b normalize.SecurityRow) bool {
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	aSpot, bSpot := a.Settlement == enum.SettlementSpot.Name(), b.Settlement == enum.SettlementSpot.Name()
	if aSpot != bSpot {
		return aSpot
	}
	return a.Settlement < b.Settlement
}
