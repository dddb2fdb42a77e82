package portfolio

import (
	"fmt"

	"StockLens/internal/domain/models"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

const (
	// DefaultMaxNews caps recent_news when the caller does not choose.
	DefaultMaxNews = 5
	// MaxAlerts caps top_alerts.
	MaxAlerts = 10
)

// BuildDashboard values each position at its latest price and summarizes the
// portfolio. A ticker missing from latestPrices (or mapped to null) is valued
// at zero and marked price_unknown.
func BuildDashboard(portfolio models.Portfolio, latestPrices map[string]null.Float, news []models.NewsItem, alerts []models.VolatilityAlert, maxNews int) (*models.DashboardSummary, error) {
	if maxNews < 0 {
		return nil, fmt.Errorf("%w: max_news must be non-negative, got %d", models.ErrInvalidArgument, maxNews)
	}

	tickers := Tickers(portfolio)
	total := 0.0
	positions := make([]models.PositionSummary, 0, len(tickers))
	for _, t := range tickers {
		pos := portfolio[t]
		ps := models.PositionSummary{
			Ticker:        t,
			Shares:        pos.Shares,
			PurchasePrice: null.FloatFrom(util.Round(pos.BuyPrice, 4)),
		}
		price := latestPrices[t]
		if price.Valid {
			value := price.Float64 * pos.Shares
			total += value
			ps.Price = null.FloatFrom(util.Round(price.Float64, 4))
			ps.PositionValue = util.Round(value, 4)
			ps.UnrealizedPL = null.FloatFrom(util.Round((price.Float64-pos.BuyPrice)*pos.Shares, 4))
		} else {
			ps.PriceUnknown = true
		}
		positions = append(positions, ps)
	}

	for i := range positions {
		if total > 0 {
			positions[i].PctOfPortfolio = util.Round(positions[i].PositionValue/total*100, 2)
		}
	}

	if len(alerts) > MaxAlerts {
		alerts = alerts[:MaxAlerts]
	}
	top := make([]models.VolatilityAlert, len(alerts))
	copy(top, alerts)

	return &models.DashboardSummary{
		TotalValue: util.Round(total, 4),
		Positions:  positions,
		TopAlerts:  top,
		RecentNews: normalizeNews(news, maxNews),
	}, nil
}

func normalizeNews(items []models.NewsItem, limit int) []models.RecentNews {
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.RecentNews, 0, len(items))
	for _, n := range items {
		title := n.Title
		if title == "" {
			title = n.Headline
		}
		published := n.PublishedAt
		if t, err := util.ParseDate(published); err == nil {
			published = util.FormatISO(t)
		}
		out = append(out, models.RecentNews{
			Title:       title,
			Source:      n.Source,
			PublishedAt: published,
			Sentiment:   n.Sentiment,
			URL:         n.URL,
		})
	}
	return out
}
