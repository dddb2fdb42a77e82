package portfolio

import (
	"sort"

	"StockLens/internal/domain/models"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

// Summarize reports position count, share total, cost basis and the
// share-weighted average buy price (null when no shares are held).
func Summarize(p models.Portfolio) models.PortfolioSummary {
	var s models.PortfolioSummary
	s.Positions = len(p)
	for _, pos := range p {
		s.TotalShares += pos.Shares
		s.TotalCostBasis += pos.Shares * pos.BuyPrice
	}
	if s.TotalShares > 0 {
		s.AverageBuyPrice = null.FloatFrom(util.Round(s.TotalCostBasis/s.TotalShares, 4))
	}
	s.TotalShares = util.Round(s.TotalShares, 4)
	s.TotalCostBasis = util.Round(s.TotalCostBasis, 4)
	return s
}

// Tickers returns the portfolio symbols in sorted order.
func Tickers(p models.Portfolio) []string {
	out := make([]string, 0, len(p))
	for t := range p {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
