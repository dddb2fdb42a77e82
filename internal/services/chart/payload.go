package chart

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

// DefaultTitle is used when the caller passes an empty title.
const DefaultTitle = "Price Chart"

const (
	valuePlaces = 4
	lineType    = "line"
)

// BuildPayload packages prices and aligned indicators for rendering. Indicators
// whose length differs from prices are left out of both Datasets and
// Indicators and named in Warnings.
// Anomalies start empty; callers attach them.
func BuildPayload(prices []null.Float, timestamps []time.Time, indicators models.IndicatorSet, title string) (*models.ChartPayload, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: empty price series", models.ErrInvalidArgument)
	}
	if timestamps != nil && len(timestamps) != len(prices) {
		return nil, fmt.Errorf("%w: %d timestamps for %d prices", models.ErrInvalidArgument, len(timestamps), len(prices))
	}
	if title == "" {
		title = DefaultTitle
	}

	p := &models.ChartPayload{
		Title:     title,
		Labels:    Labels(timestamps, len(prices)),
		Datasets:  []models.Dataset{{Label: models.PriceLabel, Data: roundSeries(prices), Type: lineType}},
		Meta:      Meta(prices),
		Anomalies: []int{},
	}

	names := make([]string, 0, len(indicators))
	for name := range indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		series := indicators[name]
		if len(series) != len(prices) {
			p.Warnings = append(p.Warnings, fmt.Sprintf("indicator %s has %d values for %d prices; dropped", name, len(series), len(prices)))
			continue
		}
		rounded := roundSeries(series)
		p.Datasets = append(p.Datasets, models.Dataset{Label: name, Data: rounded, Type: lineType})
		if p.Indicators == nil {
			p.Indicators = models.IndicatorSet{}
		}
		p.Indicators[name] = rounded
	}
	return p, nil
}

// Labels renders timestamps as ISO strings, or positional indices when there
// are none.
func Labels(timestamps []time.Time, n int) []string {
	out := make([]string, n)
	for i := range out {
		if timestamps != nil {
			out[i] = util.FormatISO(timestamps[i])
		} else {
			out[i] = strconv.Itoa(i)
		}
	}
	return out
}

// Meta computes min, max and mean of the valid prices.
func Meta(prices []null.Float) models.ChartMeta {
	var (
		meta     models.ChartMeta
		sum      float64
		count    int
		min, max float64
	)
	for _, v := range prices {
		if !v.Valid {
			continue
		}
		if count == 0 || v.Float64 < min {
			min = v.Float64
		}
		if count == 0 || v.Float64 > max {
			max = v.Float64
		}
		sum += v.Float64
		count++
	}
	if count == 0 {
		return meta
	}
	meta.Min = null.FloatFrom(min)
	meta.Max = null.FloatFrom(max)
	meta.Avg = null.FloatFrom(util.Round(sum/float64(count), valuePlaces))
	return meta
}

func roundSeries(vs []null.Float) []null.Float {
	out := make([]null.Float, len(vs))
	for i, v := range vs {
		if v.Valid {
			out[i] = null.FloatFrom(util.Round(v.Float64, valuePlaces))
		}
	}
	return out
}
