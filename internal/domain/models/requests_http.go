package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type TimeseriesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required"`
	Start  string `query:"start" json:"start" validate:"required"`
	End    string `query:"end" json:"end" validate:"required"`
}

type ZScoreRequest struct {
	Ticker     string  `query:"ticker" json:"ticker" validate:"required,ticker"`
	Start      string  `query:"start" json:"start" validate:"required,date"`
	End        string  `query:"end" json:"end" validate:"required,date"`
	Window     int     `query:"window" json:"window" default:"20" validate:"gte=2,lte=500"`
	Threshold  float64 `query:"threshold" json:"threshold" default:"3" validate:"gt=0"`
	MinNonNull int     `query:"min_non_null" json:"min_non_null" validate:"gte=0"`
}

// IndicatorsRequest runs the engine over caller supplied prices.
type IndicatorsRequest struct {
	Prices     []any    `json:"prices" validate:"required,min=1"`
	Timestamps []string `json:"timestamps"`
	Title      string   `json:"title"`
	SMAWindow  int      `json:"sma_window" default:"20" validate:"gte=1,lte=1000"`
	RSIWindow  int      `json:"rsi_window" default:"14" validate:"gte=2,lte=1000"`
	Threshold  float64  `json:"threshold" default:"0.07" validate:"gt=0"`
	Divisor    string   `json:"sma_divisor" default:"window" validate:"oneof=window count"`
}

type DashboardRequest struct {
	Portfolio []Position        `json:"portfolio" validate:"dive"`
	News      []NewsItem        `json:"news"`
	Alerts    []VolatilityAlert `json:"alerts"`
	MaxNews   *int              `json:"max_news" validate:"omitempty,gte=0,lte=100"`
}

type ExportRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
	Start  string `json:"start" validate:"required,date"`
	End    string `json:"end" validate:"required,date"`
	Format string `json:"format" default:"json" validate:"oneof=json csv png"`
}
