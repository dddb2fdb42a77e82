package models

import "github.com/guregu/null/v6"

// Dataset is one plotted line.
type Dataset struct {
	Label string       `json:"label"`
	Data  []null.Float `json:"data"`
	Type  string       `json:"type"`
}

// ChartMeta summarizes the non-null prices. All fields are null when the
// series has no valid sample.
type ChartMeta struct {
	Min null.Float `json:"min"`
	Max null.Float `json:"max"`
	Avg null.Float `json:"avg"`
}

// ChartPayload is the hand-off between the analysis engine and any renderer,
// exporter or API response.
type ChartPayload struct {
	Title      string       `json:"title"`
	Labels     []string     `json:"labels"`
	Datasets   []Dataset    `json:"datasets"`
	Meta       ChartMeta    `json:"meta"`
	Indicators IndicatorSet `json:"indicators,omitempty"`
	Anomalies  []int        `json:"anomalies"`
	Warnings   []string     `json:"warnings,omitempty"`
}

// PriceData returns the Price dataset values.
func (p *ChartPayload) PriceData() []null.Float {
	for _, ds := range p.Datasets {
		if ds.Label == PriceLabel {
			return ds.Data
		}
	}
	return nil
}

// PriceLabel names the close-price dataset.
const PriceLabel = "Price"
