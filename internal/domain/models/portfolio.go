package models

import "github.com/guregu/null/v6"

// Position is one holding.
type Position struct {
	Ticker   string  `json:"ticker"`
	Shares   float64 `json:"shares" validate:"gte=0"`
	BuyPrice float64 `json:"buy_price" validate:"gte=0"`
}

// Portfolio maps upper-case tickers to holdings.
type Portfolio map[string]Position

// PositionSummary is the dashboard row for one holding.
type PositionSummary struct {
	Ticker         string     `json:"ticker"`
	Shares         float64    `json:"shares"`
	Price          null.Float `json:"price"`
	PositionValue  float64    `json:"position_value"`
	PurchasePrice  null.Float `json:"purchase_price"`
	PctOfPortfolio float64    `json:"pct_of_portfolio"`
	UnrealizedPL   null.Float `json:"unrealized_pl"`
	PriceUnknown   bool       `json:"price_unknown"`
}

// NewsItem is an incoming headline. Either Title or Headline may be set.
type NewsItem struct {
	Title       string `json:"title,omitempty"`
	Headline    string `json:"headline,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
	Sentiment   string `json:"sentiment,omitempty"`
	URL         string `json:"url,omitempty"`
}

// RecentNews is the normalized news row shown on the dashboard.
type RecentNews struct {
	Title       string `json:"title"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	Sentiment   string `json:"sentiment"`
	URL         string `json:"url"`
}

// DashboardSummary is the portfolio overview.
type DashboardSummary struct {
	TotalValue float64           `json:"total_value"`
	Positions  []PositionSummary `json:"positions"`
	TopAlerts  []VolatilityAlert `json:"top_alerts"`
	RecentNews []RecentNews      `json:"recent_news"`
	Warnings   []string          `json:"warnings,omitempty"`
}

// PortfolioSummary holds basic metrics about a loaded portfolio.
type PortfolioSummary struct {
	Source          string     `json:"source,omitempty"`
	Positions       int        `json:"positions"`
	TotalShares     float64    `json:"total_shares"`
	TotalCostBasis  float64    `json:"total_cost_basis"`
	AverageBuyPrice null.Float `json:"average_buy_price"`
}

// RowResult reports what happened to one CSV row.
type RowResult struct {
	Line    int    `json:"line"`
	Ticker  string `json:"ticker,omitempty"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}
